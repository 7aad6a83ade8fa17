// Package database implements the card repository on PostgreSQL with pgx.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/cardimport/internal/config"
	"github.com/JonMunkholm/cardimport/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Columns written for every card, in COPY order.
var cardColumns = []string{
	"uuid",
	"mana_value",
	"mana_cost",
	"name",
	"rarity",
	"set_code",
	"subtype",
	"text",
	"type",
}

// DBTX is the subset of pgxpool.Pool used by CardStore.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// CardStore is a core.Repository backed by a PostgreSQL table.
type CardStore struct {
	db     DBTX
	table  pgx.Identifier
	insert bool
}

// Option configures a CardStore.
type Option func(*CardStore)

// WithInsertFallback persists batches with queued INSERT statements
// instead of COPY. Useful behind poolers that do not support COPY.
func WithInsertFallback(enabled bool) Option {
	return func(s *CardStore) {
		s.insert = enabled
	}
}

// New creates a store over db writing to table. table may be
// schema-qualified ("catalog.cards").
func New(db DBTX, table string, opts ...Option) *CardStore {
	s := &CardStore{
		db:    db,
		table: pgx.Identifier(strings.Split(table, ".")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// querier runs a query on a pool or inside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ListIdentifiers streams every stored uuid to visit.
func (s *CardStore) ListIdentifiers(ctx context.Context, visit func(string) error) error {
	return listIdentifiers(ctx, s.db, s.table, visit)
}

func listIdentifiers(ctx context.Context, q querier, table pgx.Identifier, visit func(string) error) error {
	rows, err := q.Query(ctx, "SELECT uuid FROM "+table.Sanitize())
	if err != nil {
		return fmt.Errorf("query identifiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan identifier: %w", err)
		}
		if err := visit(id); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Begin opens the read-committed transaction shared by a whole import run.
func (s *CardStore) Begin(ctx context.Context) (core.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	return &CardTx{tx: tx, table: s.table, insert: s.insert}, nil
}

// CardTx is an open import transaction.
type CardTx struct {
	tx     pgx.Tx
	table  pgx.Identifier
	insert bool
}

// ListIdentifiers streams every uuid visible to the transaction. It runs on
// the transaction's connection, so a run needs only one pooled connection.
func (t *CardTx) ListIdentifiers(ctx context.Context, visit func(string) error) error {
	return listIdentifiers(ctx, t.tx, t.table, visit)
}

// PersistBatch writes cards inside the transaction.
func (t *CardTx) PersistBatch(ctx context.Context, cards []core.Card) error {
	if len(cards) == 0 {
		return nil
	}
	if t.insert {
		return t.insertBatch(ctx, cards)
	}

	n, err := t.tx.CopyFrom(ctx, t.table, cardColumns, pgx.CopyFromSlice(len(cards), func(i int) ([]any, error) {
		return cardValues(cards[i]), nil
	}))
	if err != nil {
		return fmt.Errorf("copy cards: %w", err)
	}
	if int(n) != len(cards) {
		return fmt.Errorf("copy cards: wrote %d of %d rows", n, len(cards))
	}
	return nil
}

func (t *CardTx) insertBatch(ctx context.Context, cards []core.Card) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		t.table.Sanitize(), strings.Join(cardColumns, ", "))

	batch := &pgx.Batch{}
	for _, c := range cards {
		batch.Queue(query, cardValues(c)...)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert cards: %w", err)
	}
	return nil
}

// Commit commits the transaction.
func (t *CardTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback aborts the transaction. Rolling back an already closed
// transaction (after a failed commit) is not an error.
func (t *CardTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// cardValues returns c in cardColumns order. Empty optional text is NULL.
func cardValues(c core.Card) []any {
	return []any{
		c.UUID,
		c.ManaValue,
		nullText(c.ManaCost),
		c.Name,
		c.Rarity,
		c.SetCode,
		nullText(c.Subtype),
		nullText(c.Text),
		c.Type,
	}
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// Connect opens a pool configured from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
