package core

import (
	"context"
	"time"
)

// Card column names as they appear in the source header.
const (
	ColUUID      = "uuid"
	ColManaValue = "manaValue"
	ColManaCost  = "manaCost"
	ColName      = "name"
	ColRarity    = "rarity"
	ColSetCode   = "setCode"
	ColSubtypes  = "subtypes"
	ColText      = "text"
	ColType      = "type"
)

// CardColumns lists every column the source header must contain.
var CardColumns = []string{
	ColUUID, ColManaValue, ColManaCost, ColName, ColRarity,
	ColSetCode, ColSubtypes, ColText, ColType,
}

// RawRow maps a header column name to its raw string value for one source line.
type RawRow map[string]string

// Card is one persisted trading-card record. UUID is the primary key and the
// only dedup key; it never changes once assigned.
type Card struct {
	UUID      string
	ManaValue float64
	ManaCost  string
	Name      string
	Rarity    string
	SetCode   string
	Subtype   string
	Text      string
	Type      string
}

// IdentifierLister streams every identifier already present in the store.
// visit is called once per identifier; a non-nil return stops the scan.
type IdentifierLister interface {
	ListIdentifiers(ctx context.Context, visit func(id string) error) error
}

// BatchPersister writes one batch of cards inside an open transaction.
type BatchPersister interface {
	PersistBatch(ctx context.Context, cards []Card) error
}

// Transaction is a store transaction spanning an entire import run.
// If it also implements IdentifierLister, the run loads its identifier
// index through the transaction instead of the Repository.
type Transaction interface {
	BatchPersister
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository is the store contract the import pipeline depends on.
type Repository interface {
	IdentifierLister
	Begin(ctx context.Context) (Transaction, error)
}

// RunPhase indicates the current stage of an import run.
type RunPhase string

const (
	PhaseInit       RunPhase = "init"
	PhaseStreaming  RunPhase = "streaming"
	PhaseCommitting RunPhase = "committing"
	PhaseSuccess    RunPhase = "success"
	PhaseFailed     RunPhase = "failed"
)

// BatchEvent describes one completed batch flush.
type BatchEvent struct {
	Batch     int // 1-based flush sequence number
	Size      int // cards in this batch
	Persisted int // cumulative cards persisted this run
}

// RunResult contains the outcome of an import run.
type RunResult struct {
	RunID     string
	File      string
	Phase     RunPhase
	Processed int // source rows examined
	Imported  int // rows built and handed to the committer
	Existing  int // identifiers in the index at start
	Flushes   int
	BytesRead int64
	Elapsed   time.Duration
}
