// Copyright (c) 2024 ddforge authors
//
// MIT License

package lace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDequePushPopOwner(t *testing.T) {
	d := newDeque(16)
	require.Equal(t, 0, d.len())

	for i := 0; i < 8; i++ {
		ok := d.pushBottom(NewTask(func(w *Worker) int64 { return 0 }))
		require.True(t, ok)
	}
	require.Equal(t, 8, d.len())

	for i := 0; i < 8; i++ {
		require.NotNil(t, d.popBottom())
	}
	require.Equal(t, 0, d.len())
	require.Nil(t, d.popBottom())
}

func TestDequeFullReportsFailure(t *testing.T) {
	d := newDeque(4)
	for i := 0; i < 4; i++ {
		require.True(t, d.pushBottom(NewTask(func(w *Worker) int64 { return 0 })))
	}
	require.False(t, d.pushBottom(NewTask(func(w *Worker) int64 { return 0 })))
}

func TestDequeStealDoesNotDuplicate(t *testing.T) {
	const n = 2000
	d := newDeque(4096)

	seen := make([]int64, n)
	for i := 0; i < n; i++ {
		i := i
		d.pushBottom(NewTask(func(w *Worker) int64 { return int64(i) }))
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	record := func(r int64) {
		mu.Lock()
		seen[r]++
		mu.Unlock()
	}

	for th := 0; th < 8; th++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task := d.popTop()
				if task == nil {
					return
				}
				record(task.run(nil))
			}
		}()
	}
	for {
		task := d.popBottom()
		if task == nil {
			break
		}
		record(task.run(nil))
	}
	wg.Wait()

	var total int64
	for i, count := range seen {
		require.LessOrEqualf(t, count, int64(1), "task %d observed %d times", i, count)
		total += count
	}
	require.Equal(t, int64(n), total)
}
