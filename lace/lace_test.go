// Copyright (c) 2024 ddforge authors
//
// MIT License

package lace

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunSingleTask(t *testing.T) {
	rt := NewRuntime(4, nil)
	rt.Start()
	defer rt.Stop()

	r := rt.Run(NewTask(func(w *Worker) int64 { return 42 }))
	require.Equal(t, int64(42), r)
}

// fib spawns its recursive calls as lace tasks, exercising Spawn/Sync and
// cross-worker stealing under a fixed pool size. It takes w purely to kick
// off the top-level call; every recursive call instead uses whichever
// worker NewTask hands it, since a stolen sub-task runs on the thief, not
// on the worker that spawned it.
func fib(w *Worker, n int64) int64 {
	if n < 2 {
		return n
	}
	t := NewTask(func(w *Worker) int64 { return fib(w, n-1) })
	w.Spawn(t)
	r := fib(w, n-2)
	return w.Sync(t) + r
}

func TestFibAcrossWorkers(t *testing.T) {
	rt := NewRuntime(8, nil)
	rt.Start()
	defer rt.Stop()

	r := rt.Run(NewTask(func(w *Worker) int64 { return fib(w, 20) }))
	require.Equal(t, int64(6765), r)
}

func TestCurrentRefsVisibleDuringRun(t *testing.T) {
	rt := NewRuntime(2, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	task := NewTask(func(w *Worker) int64 {
		close(started)
		<-release
		return 7
	})
	task.Refs = []int64{101, 202}

	go func() {
		rt.workers[1].runTask(task)
	}()

	<-started
	require.Equal(t, []int64{101, 202}, rt.workers[1].CurrentRefs())
	close(release)

	for !task.Done() {
		time.Sleep(time.Millisecond)
	}
	require.Nil(t, rt.workers[1].CurrentRefs())
}

func TestGCHandlerRunsOncePerRequest(t *testing.T) {
	rt := NewRuntime(4, nil)

	var calls int
	rt.SetGCHandler(func(w *Worker) {
		if w.ID() == 0 {
			calls++
		}
	})

	rt.RequestGC()
	var wg sync.WaitGroup
	for _, w := range rt.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			rt.Yield(w)
		}(w)
	}
	wg.Wait()
	require.Equal(t, 1, calls)
	require.False(t, rt.gcRequest.Load())
}
