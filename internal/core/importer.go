package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JonMunkholm/cardimport/internal/logging"
	"github.com/google/uuid"
)

// ImporterConfig holds the settings of an import run.
type ImporterConfig struct {
	// BatchSize is the number of cards per flush (DefaultBatchSize if <= 0).
	BatchSize int

	// Limit caps the number of source rows examined, not rows imported.
	// 0 disables the cap.
	Limit int

	// ReclaimMemory forces a GC pass after every flush.
	ReclaimMemory bool

	// Build controls value transforms applied to each row.
	Build BuildOptions
}

// Importer drives a single-threaded import run against a Repository.
type Importer struct {
	repo     Repository
	cfg      ImporterConfig
	observer Observer
	now      func() time.Time
	newRunID func() string
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithRunObserver sets the observer for batch and completion events.
func WithRunObserver(o Observer) ImporterOption {
	return func(im *Importer) {
		if o != nil {
			im.observer = o
		}
	}
}

// WithClock overrides the time source used for elapsed-time reporting.
func WithClock(now func() time.Time) ImporterOption {
	return func(im *Importer) {
		im.now = now
	}
}

// WithRunIDFunc overrides run id generation.
func WithRunIDFunc(fn func() string) ImporterOption {
	return func(im *Importer) {
		im.newRunID = fn
	}
}

// NewImporter creates an importer over repo.
func NewImporter(repo Repository, cfg ImporterConfig, opts ...ImporterOption) *Importer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Limit < 0 {
		cfg.Limit = 0
	}

	im := &Importer{
		repo:     repo,
		cfg:      cfg,
		observer: NopObserver{},
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Run imports every card in the CSV at path whose uuid is not yet stored.
//
// The whole run shares one transaction: either every new card is committed
// or, on any failure, the transaction is rolled back and the store is left as
// it was. The returned RunResult is never nil and reflects counts up to the
// point of failure.
func (im *Importer) Run(ctx context.Context, path string) (*RunResult, error) {
	start := im.now()

	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = im.newRunID()
		ctx = logging.ContextWithRunID(ctx, runID)
	}

	res := &RunResult{RunID: runID, File: path, Phase: PhaseInit}
	logger := logging.WithFields(ctx,
		"file", path,
		"limit", im.cfg.Limit,
		"batch_size", im.cfg.BatchSize,
	)
	logger.Info("starting import")

	err := im.run(ctx, path, res)

	res.Elapsed = im.now().Sub(start)
	if err != nil {
		res.Phase = PhaseFailed
	} else {
		res.Phase = PhaseSuccess
	}
	im.observer.RunFinished(ctx, *res, err)

	return res, err
}

func (im *Importer) run(ctx context.Context, path string, res *RunResult) error {
	// Init: file checks happen before any store interaction.
	f, size, err := openSource(path)
	if err != nil {
		return err
	}
	defer f.Close()

	src, counter := WrapForStreaming(f, size)
	defer func() { res.BytesRead = counter.BytesRead }()

	rows, err := NewRowReader(src)
	if err != nil {
		return err
	}

	tx, err := im.repo.Begin(ctx)
	if err != nil {
		return storeError("begin transaction", err)
	}

	ended := false
	defer func() {
		// Reached only if something panicked between Begin and the end of the run.
		if !ended {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	fail := func(cause error) error {
		ended = true
		return im.abort(ctx, tx, cause)
	}

	// Scan on the transaction's own connection when it can, so a run never
	// needs a second pooled connection while the transaction is open.
	var lister IdentifierLister = im.repo
	if l, ok := tx.(IdentifierLister); ok {
		lister = l
	}

	index, err := LoadIdentifierIndex(ctx, lister)
	if err != nil {
		return fail(err)
	}
	res.Existing = index.Len()
	logging.FromContext(ctx).Debug("identifier index loaded", "existing", index.Len())

	committer := NewBatchCommitter(tx, im.cfg.BatchSize,
		WithObserver(im.observer),
		WithReclaim(im.cfg.ReclaimMemory),
	)

	// Streaming
	res.Phase = PhaseStreaming
	err = im.stream(ctx, rows, index, committer, res)
	res.Flushes = committer.Flushes()
	if err != nil {
		return fail(err)
	}

	// Committing
	res.Phase = PhaseCommitting
	if err := committer.FlushRemaining(ctx); err != nil {
		res.Flushes = committer.Flushes()
		return fail(err)
	}
	res.Flushes = committer.Flushes()

	if err := tx.Commit(ctx); err != nil {
		return fail(storeError("commit", err))
	}
	ended = true

	return nil
}

// stream pulls rows until EOF or the row limit, handing new cards to c.
func (im *Importer) stream(ctx context.Context, rows *RowReader, index *IdentifierIndex, c *BatchCommitter, res *RunResult) error {
	for {
		if im.cfg.Limit > 0 && res.Processed >= im.cfg.Limit {
			return nil
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		res.Processed++

		if index.Contains(row[ColUUID]) {
			continue
		}

		card, err := BuildCard(row, im.cfg.Build)
		if err != nil {
			return withLine(err, rows.Line())
		}

		if err := c.Add(ctx, card); err != nil {
			return withLine(err, rows.Line())
		}
		res.Imported++
	}
}

// abort rolls tx back and returns cause, joined with ErrRollbackFailed if the
// rollback itself fails. Rollback runs on an uncancelled context so a
// cancelled run still releases its transaction.
func (im *Importer) abort(ctx context.Context, tx Transaction, cause error) error {
	logger := logging.FromContext(ctx)

	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		logger.Error("rollback failed", "error", err, "cause", cause)
		return errors.Join(cause, &ImportError{Kind: ErrRollbackFailed, Err: err})
	}

	logger.Warn("import rolled back", "cause", cause)
	return cause
}

// CheckSource reports an ErrInput error if path is not a readable regular
// file. Callers use it to fail before connecting to the store.
func CheckSource(path string) error {
	_, err := statSource(path)
	return err
}

func statSource(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, inputError(fmt.Errorf("stat source: %w", err))
	}
	if info.IsDir() {
		return nil, inputError(fmt.Errorf("%s is a directory", path))
	}
	return info, nil
}

// openSource opens path for streaming and returns its size.
func openSource(path string) (*os.File, int64, error) {
	info, err := statSource(path)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, inputError(fmt.Errorf("open: %w", err))
	}
	return f, info.Size(), nil
}
