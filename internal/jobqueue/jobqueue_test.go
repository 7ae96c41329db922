package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain guards the whole package against leaked goroutines:
// WarmCompile's errgroup fan-out is the one place here that could leave
// a task running past its caller if WithContext's cancellation wiring
// ever regressed.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDrainRunsJobsFIFO(t *testing.T) {
	q := New()
	var order []int
	q.Enqueue(func() error { order = append(order, 1); return nil })
	q.Enqueue(func() error { order = append(order, 2); return nil })
	require.NoError(t, q.Drain())
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 0, q.Len())
}

func TestDrainRunsJobsEnqueuedDuringDrain(t *testing.T) {
	q := New()
	var order []int
	q.Enqueue(func() error {
		order = append(order, 1)
		q.Enqueue(func() error { order = append(order, 2); return nil })
		return nil
	})
	require.NoError(t, q.Drain())
	assert.Equal(t, []int{1, 2}, order)
}

func TestDrainStopsAtFirstError(t *testing.T) {
	q := New()
	boom := errors.New("boom")
	var ran bool
	q.Enqueue(func() error { return boom })
	q.Enqueue(func() error { ran = true; return nil })
	err := q.Drain()
	assert.Equal(t, boom, err)
	assert.False(t, ran)
}

func TestRunOneDrainsExactlyOneJob(t *testing.T) {
	q := New()
	var count int
	q.Enqueue(func() error { count++; return nil })
	q.Enqueue(func() error { count++; return nil })
	require.NoError(t, q.RunOne())
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, q.Len())
}

func TestWarmCompileStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := WarmCompile(context.Background(), []func() error{
		func() error { return nil },
		func() error { return boom },
		func() error { return nil },
	})
	assert.ErrorIs(t, err, boom)
}

func TestWarmCompileRunsAllTasks(t *testing.T) {
	var count int
	var mu sync.Mutex
	tasks := make([]func() error, 8)
	for i := range tasks {
		tasks[i] = func() error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		}
	}
	require.NoError(t, WarmCompile(context.Background(), tasks))
	assert.Equal(t, 8, count)
}
