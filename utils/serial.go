package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrSerialClosed = errors.New("[plasticity] serial queue is closed")

// Op is one asynchronous operation scheduled on a Serial queue. The
// context it receives carries the queue's reentrancy token and is
// cancelled if the caller's context is.
type Op func(ctx context.Context) error

// Serial runs operations strictly one at a time, in Enqueue order.
// An operation's error (or panic) settles that operation's handle and
// never prevents the next operation from running. A Serial is owned by
// exactly one object (the geometry database owns one for all document
// mutation) and must not be shared across owners.
type Serial struct {
	mu     sync.Mutex
	tail   chan struct{}
	closed bool
}

func NewSerial() *Serial {
	return &Serial{}
}

type serialToken struct{ q *Serial }

func inside(ctx context.Context, q *Serial) bool {
	t, _ := ctx.Value(serialToken{}).(*Serial)
	return t == q
}

// Enqueue schedules op after everything already queued and returns a
// handle that settles with op's own outcome. If called from within an
// operation already running on this queue, op executes inline: the
// caller holds the queue's turn, so scheduling behind itself would
// deadlock.
func (q *Serial) Enqueue(ctx context.Context, op Op) *Done {
	if inside(ctx, q) {
		return SettledDone(run(ctx, op))
	}

	done := NewDone()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		done.Settle(ErrSerialClosed)
		return done
	}
	prev := q.tail
	turn := make(chan struct{})
	q.tail = turn
	q.mu.Unlock()

	go func() {
		defer close(turn)
		if prev != nil {
			<-prev
		}
		done.Settle(run(context.WithValue(ctx, serialToken{}, q), op))
	}()

	return done
}

// run executes op, converting a panic into an error so one bad
// operation cannot take the queue's goroutine down.
func run(ctx context.Context, op Op) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("[plasticity] operation panic: %v", r)
		}
	}()
	return op(ctx)
}

// Close refuses further operations. Operations already queued still
// run in order.
func (q *Serial) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return nil
}
