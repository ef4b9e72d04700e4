// Package batch implements the fixed-capacity accumulator every producer
// in the pipeline uses to hand work downstream: it fills a slice, and once
// full (or once told to close) ships it as a single message rather than
// forcing the consumer to handle one element at a time.
package batch

import (
	"context"
	"unsafe"
)

// capacityBytes is the target in-flight size of one batch, matching the
// accumulator used throughout the pipeline's producers.
const capacityBytes = 8 * 1024

// Batcher accumulates values of type T and ships them downstream as a
// single message of type M once the batch fills or Close is called. It is
// not safe for concurrent use; each producer owns exactly one.
type Batcher[T any, M any] struct {
	buf   []T
	cap   int
	out   chan<- M
	toMsg func([]T) M
}

// New creates a Batcher with capacity max(1, 8KiB/sizeof(T)), sending
// completed batches on out via toMsg.
func New[T any, M any](out chan<- M, toMsg func([]T) M) *Batcher[T, M] {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	cap := capacityBytes / elemSize
	if cap < 1 {
		cap = 1
	}
	return &Batcher[T, M]{
		buf:   make([]T, 0, cap),
		cap:   cap,
		out:   out,
		toMsg: toMsg,
	}
}

// Push appends x to the batch, flushing (and suspending on a full
// downstream channel) when the batch reaches capacity. This is the
// pipeline's sole backpressure propagation point for producers.
func (b *Batcher[T, M]) Push(ctx context.Context, x T) error {
	b.buf = append(b.buf, x)
	if len(b.buf) < b.cap {
		return nil
	}
	return b.flush(ctx)
}

// Close flushes any residual elements. Callers must call Close exactly
// once, typically via defer, when they are done producing. This is the
// explicit stand-in for the drop-time flush an RAII language gets for
// free. If ctx is cancelled before out accepts the residue, the residue is
// discarded and ctx's error is returned.
func (b *Batcher[T, M]) Close(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	return b.flush(ctx)
}

func (b *Batcher[T, M]) flush(ctx context.Context) error {
	full := b.buf
	b.buf = make([]T, 0, b.cap)
	select {
	case b.out <- b.toMsg(full):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
