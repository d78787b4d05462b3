package utils

import (
	"context"
	"sync/atomic"
)

// Done is a settle-once handle for an asynchronous operation. It carries
// the operation's error, or nil on success.
type Done struct {
	ch      chan struct{}
	err     error
	settled atomic.Bool
}

func NewDone() *Done {
	return &Done{ch: make(chan struct{})}
}

// SettledDone returns a handle that is already settled with err.
func SettledDone(err error) *Done {
	d := NewDone()
	d.Settle(err)
	return d
}

// Settle records the outcome and releases all waiters. Only the first
// call wins; later calls are ignored.
func (d *Done) Settle(err error) {
	if d.settled.CompareAndSwap(false, true) {
		d.err = err
		close(d.ch)
	}
}

// C is closed once the handle settles.
func (d *Done) C() <-chan struct{} {
	return d.ch
}

// Err returns the settled outcome. Call only after C is closed,
// or after Wait returned.
func (d *Done) Err() error {
	return d.err
}

// Wait blocks until the handle settles or ctx expires. An already
// settled handle reports its outcome even if ctx is also done.
func (d *Done) Wait(ctx context.Context) error {
	select {
	case <-d.ch:
		return d.err
	default:
	}
	select {
	case <-d.ch:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
