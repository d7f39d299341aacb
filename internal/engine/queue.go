package engine

import (
	"context"
	"errors"
	"sync"
)

// errQueueClosed is returned by blocking queue operations once the queue
// has been closed by machine teardown.
var errQueueClosed = errors.New("queue closed")

// taskQueue is a bounded FIFO of tasks owned by exactly one state. It
// backs both the state's input queue and, for accumulating states, the
// accumulator. Quiescence is not a per-queue concept: the machine keeps
// a single counter of outstanding tasks across all queues.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []any
	limit  int // 0 = unbounded
	closed bool
}

func newTaskQueue(limit int) *taskQueue {
	q := &taskQueue{limit: limit}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// put appends task, blocking while the queue is full. It returns ctx.Err
// if the context is cancelled while waiting, or errQueueClosed if the
// queue is closed before the task could be enqueued.
func (q *taskQueue) put(ctx context.Context, task any) error {
	stop := context.AfterFunc(ctx, q.cond.Broadcast)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && ctx.Err() == nil && q.limit > 0 && len(q.items) >= q.limit {
		q.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.closed {
		return errQueueClosed
	}

	q.items = append(q.items, task)
	q.cond.Broadcast()
	return nil
}

// take removes and returns the oldest task, blocking while the queue is
// empty.
func (q *taskQueue) take(ctx context.Context) (any, error) {
	stop := context.AfterFunc(ctx, q.cond.Broadcast)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && ctx.Err() == nil && len(q.items) == 0 {
		q.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.closed {
		return nil, errQueueClosed
	}

	task := q.items[0]
	q.items = q.items[1:]
	q.cond.Broadcast()
	return task, nil
}

// tryTake removes and returns the oldest task without blocking. It
// still succeeds on a closed queue so that leftover items remain
// drainable after teardown.
func (q *taskQueue) tryTake() (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	task := q.items[0]
	q.items = q.items[1:]
	q.cond.Broadcast()
	return task, true
}

// len returns the number of pending (not yet taken) tasks.
func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close wakes every blocked put/take and makes them fail. Pending items
// stay in place for tryTake.
func (q *taskQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}
