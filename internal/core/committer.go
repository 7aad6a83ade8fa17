package core

import (
	"context"
	"runtime/debug"
)

// DefaultBatchSize is the number of cards persisted per flush.
const DefaultBatchSize = 1000

// BatchCommitter accumulates cards and persists them in fixed-size batches
// into an already-open transaction. It never opens, commits or rolls back
// the transaction itself.
type BatchCommitter struct {
	tx       BatchPersister
	size     int
	observer Observer
	reclaim  bool
	release  func(batch []Card)

	batch     []Card
	flushes   int
	persisted int
}

// CommitterOption configures a BatchCommitter.
type CommitterOption func(*BatchCommitter)

// WithObserver sets the observer notified after each flush.
func WithObserver(o Observer) CommitterOption {
	return func(c *BatchCommitter) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithReclaim forces a garbage collection that returns freed memory to the
// OS after every flush.
func WithReclaim(enabled bool) CommitterOption {
	return func(c *BatchCommitter) {
		c.reclaim = enabled
	}
}

// WithReleaseHook runs fn with the persisted batch just before its slots are
// cleared. Tests use it to observe the release step.
func WithReleaseHook(fn func(batch []Card)) CommitterOption {
	return func(c *BatchCommitter) {
		c.release = fn
	}
}

// NewBatchCommitter creates a committer persisting into tx.
// A non-positive size falls back to DefaultBatchSize.
func NewBatchCommitter(tx BatchPersister, size int, opts ...CommitterOption) *BatchCommitter {
	if size <= 0 {
		size = DefaultBatchSize
	}

	c := &BatchCommitter{
		tx:       tx,
		size:     size,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.batch = make([]Card, 0, size)

	return c
}

// Add appends a card and flushes synchronously once the batch is full.
func (c *BatchCommitter) Add(ctx context.Context, card Card) error {
	c.batch = append(c.batch, card)
	return c.FlushIfFull(ctx)
}

// FlushIfFull persists the working set if it has reached the batch size.
func (c *BatchCommitter) FlushIfFull(ctx context.Context) error {
	if len(c.batch) < c.size {
		return nil
	}
	return c.flush(ctx)
}

// FlushRemaining persists a final partial batch. It is a no-op when empty.
func (c *BatchCommitter) FlushRemaining(ctx context.Context) error {
	if len(c.batch) == 0 {
		return nil
	}
	return c.flush(ctx)
}

// Pending returns the number of cards waiting for the next flush.
func (c *BatchCommitter) Pending() int {
	return len(c.batch)
}

// Flushes returns the number of batches persisted so far.
func (c *BatchCommitter) Flushes() int {
	return c.flushes
}

// Persisted returns the number of cards persisted so far.
func (c *BatchCommitter) Persisted() int {
	return c.persisted
}

func (c *BatchCommitter) flush(ctx context.Context) error {
	n := len(c.batch)
	if err := c.tx.PersistBatch(ctx, c.batch); err != nil {
		return storeError("persist batch", err)
	}

	c.flushes++
	c.persisted += n
	c.releaseBatch()

	c.observer.BatchFlushed(ctx, BatchEvent{
		Batch:     c.flushes,
		Size:      n,
		Persisted: c.persisted,
	})
	return nil
}

// releaseBatch drops every reference held by the working set so the cards
// become collectable, and keeps the backing array for the next batch.
func (c *BatchCommitter) releaseBatch() {
	if c.release != nil {
		c.release(c.batch)
	}

	clear(c.batch)
	c.batch = c.batch[:0]

	if c.reclaim {
		debug.FreeOSMemory()
	}
}
