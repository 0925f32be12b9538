package storage

import (
	"context"
	"time"

	"pocketledger/internal/logger"
)

const opTimeout = 5 * time.Second

type opKind int

const (
	opSet opKind = iota
	opRemove
	opFlush
)

type op struct {
	kind  opKind
	key   string
	value string
	ack   chan struct{}
}

// Writer applies store writes asynchronously through a single worker
// goroutine, so the durable order always matches the enqueue order.
// Write failures are logged and never surfaced to the mutation path.
type Writer struct {
	store Store
	ops   chan op
	done  chan struct{}
}

// NewWriter starts the background worker over the given store.
func NewWriter(store Store) *Writer {
	w := &Writer{
		store: store,
		ops:   make(chan op, 64),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Writer) run() {
	defer close(w.done)
	for o := range w.ops {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		switch o.kind {
		case opSet:
			if err := w.store.Set(ctx, o.key, o.value); err != nil {
				logger.Get().Warnw("durable store write failed", "key", o.key, "error", err)
			}
		case opRemove:
			if err := w.store.Remove(ctx, o.key); err != nil {
				logger.Get().Warnw("durable store remove failed", "key", o.key, "error", err)
			}
		case opFlush:
			close(o.ack)
		}
		cancel()
	}
}

// Set enqueues a write of value under key.
func (w *Writer) Set(key, value string) {
	w.ops <- op{kind: opSet, key: key, value: value}
}

// Remove enqueues a deletion of key.
func (w *Writer) Remove(key string) {
	w.ops <- op{kind: opRemove, key: key}
}

// Flush blocks until every previously enqueued operation has been applied.
func (w *Writer) Flush() {
	ack := make(chan struct{})
	w.ops <- op{kind: opFlush, ack: ack}
	<-ack
}

// Close flushes pending operations and stops the worker.
func (w *Writer) Close() {
	w.Flush()
	close(w.ops)
	<-w.done
}
