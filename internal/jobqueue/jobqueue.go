// Package jobqueue implements the engine's microtask queue: the
// run_jobs() surface spec.md §4.4/§6 describes for Promise reactions
// and async-function continuations.
//
// Draining the queue is strictly sequential — ECMAScript jobs run to
// completion before the next one starts, so two microtasks never
// interleave — but building the module graph that produces those jobs
// in the first place is embarrassingly parallel (sibling modules don't
// depend on each other until the link step), so WarmCompile below uses
// golang.org/x/sync/errgroup for that one, separate, concern.
package jobqueue

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Job is one microtask: a Promise reaction, a queueMicrotask callback,
// or an async function's continuation past an await point.
type Job func() error

// Queue is a FIFO microtask queue belonging to a single Machine.
type Queue struct {
	mu      sync.Mutex
	pending []Job
}

func New() *Queue { return &Queue{} }

// Enqueue appends job to the end of the queue.
func (q *Queue) Enqueue(job Job) {
	q.mu.Lock()
	q.pending = append(q.pending, job)
	q.mu.Unlock()
}

// Len reports how many jobs are currently waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs every pending job to completion, FIFO, including jobs a
// running job enqueues itself, until the queue is empty. The first
// job to return an error stops draining; jobs already run are not
// undone.
func (q *Queue) Drain() error {
	for {
		job, ok := q.pop()
		if !ok {
			return nil
		}
		if err := job(); err != nil {
			return err
		}
	}
}

// RunOne drains exactly one pending job, used by the VM's await
// implementation to pump the queue until a specific promise settles
// without draining jobs that have nothing to do with it.
func (q *Queue) RunOne() error {
	job, ok := q.pop()
	if !ok {
		return nil
	}
	return job()
}

func (q *Queue) pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, false
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	return job, true
}

// WarmCompile runs independent module-compile tasks concurrently and
// returns the first error; the tasks take no context, so the others
// still run to completion after one fails. Unlike Drain, order and interleaving
// don't matter here: nothing a task does is observable to another
// task before the module graph is linked.
func WarmCompile(ctx context.Context, tasks []func() error) error {
	g, _ := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(task)
	}
	return g.Wait()
}
