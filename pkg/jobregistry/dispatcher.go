package jobregistry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the dispatch queue cannot accept more
// work; callers surface this to clients rather than blocking a request
// handler indefinitely.
var ErrQueueFull = errors.New("synthesis queue is full")

// Task is one unit of synthesis work. The context passed to it is never
// canceled by shutdown: once dispatched, a job runs to completion or
// failure (no cancellation mechanism exists; callers may only delete the
// bookkeeping record afterward).
type Task func(ctx context.Context)

// Dispatcher executes synthesis tasks on a single background worker,
// serializing access to the shared accelerator so at most one synthesis
// runs at a time while request handlers stay unblocked.
type Dispatcher struct {
	tasks    chan Task
	inFlight atomic.Int64
	log      *zap.Logger
}

// NewDispatcher builds a dispatcher with the given queue capacity.
func NewDispatcher(queueSize int, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Dispatcher{
		tasks: make(chan Task, queueSize),
		log:   log,
	}
}

// Enqueue schedules a task for background execution. It never blocks;
// when the queue is full it returns ErrQueueFull.
func (d *Dispatcher) Enqueue(task Task) error {
	select {
	case d.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueDepth reports queued plus in-flight tasks, for resource
// reporting.
func (d *Dispatcher) QueueDepth() int {
	return len(d.tasks) + int(d.inFlight.Load())
}

// Run consumes tasks until ctx is canceled. The task in flight when
// shutdown begins is allowed to finish; its context is detached from the
// shutdown signal.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-d.tasks:
			d.execute(context.WithoutCancel(ctx), task)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, task Task) {
	d.inFlight.Add(1)
	defer d.inFlight.Add(-1)

	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("synthesis task panicked",
				zap.String("panic", fmt.Sprint(rec)))
		}
	}()

	task(ctx)
}
