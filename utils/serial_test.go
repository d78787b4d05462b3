package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSerial_Order(t *testing.T) {
	q := NewSerial()
	ctx := context.Background()

	var mu sync.Mutex
	var got []int
	var dones []*Done
	for i := 0; i < 32; i++ {
		i := i
		dones = append(dones, q.Enqueue(ctx, func(ctx context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	for _, d := range dones {
		assert.Nil(t, d.Wait(ctx))
	}

	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestSerial_OneAtATime(t *testing.T) {
	q := NewSerial()
	ctx := context.Background()

	var mu sync.Mutex
	running, max := 0, 0
	var dones []*Done
	for i := 0; i < 16; i++ {
		dones = append(dones, q.Enqueue(ctx, func(ctx context.Context) error {
			mu.Lock()
			running++
			if running > max {
				max = running
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			running--
			mu.Unlock()
			return nil
		}))
	}
	for _, d := range dones {
		assert.Nil(t, d.Wait(ctx))
	}
	assert.Equal(t, 1, max)
}

func TestSerial_FailureIsolation(t *testing.T) {
	q := NewSerial()
	ctx := context.Background()

	boom := errors.New("boom")
	bad := q.Enqueue(ctx, func(ctx context.Context) error { return boom })
	panicky := q.Enqueue(ctx, func(ctx context.Context) error { panic("ouch") })
	ok := q.Enqueue(ctx, func(ctx context.Context) error { return nil })

	assert.Equal(t, boom, bad.Wait(ctx))
	assert.NotNil(t, panicky.Wait(ctx))
	assert.Nil(t, ok.Wait(ctx))
}

func TestSerial_Reentrant(t *testing.T) {
	q := NewSerial()
	ctx := context.Background()

	var order []string
	outer := q.Enqueue(ctx, func(ctx context.Context) error {
		order = append(order, "outer")
		// runs inline, not behind the queue's tail
		return q.Enqueue(ctx, func(ctx context.Context) error {
			order = append(order, "inner")
			return nil
		}).Wait(ctx)
	})
	assert.Nil(t, outer.Wait(ctx))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestSerial_Close(t *testing.T) {
	q := NewSerial()
	ctx := context.Background()

	before := q.Enqueue(ctx, func(ctx context.Context) error { return nil })
	assert.Nil(t, q.Close())
	after := q.Enqueue(ctx, func(ctx context.Context) error { return nil })

	assert.Nil(t, before.Wait(ctx))
	assert.Equal(t, ErrSerialClosed, after.Wait(ctx))
}

func TestDone_SettleOnce(t *testing.T) {
	d := NewDone()
	first := errors.New("first")
	d.Settle(first)
	d.Settle(errors.New("second"))
	assert.Equal(t, first, d.Wait(context.Background()))
}
