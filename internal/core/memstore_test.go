package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// memStore is an in-memory Repository with transactional semantics: batches
// are staged on the transaction and only become visible on Commit.
type memStore struct {
	cards map[string]Card

	listErr     error
	beginErr    error
	failBatch   int // 1-based batch number whose persist fails; 0 never
	commitErr   error
	rollbackErr error

	batchSizes []int
	scans      int // ListIdentifiers calls on the store
	txScans    int // ListIdentifiers calls on a transaction
	begun      int
	commits    int
	rollbacks  int
}

func newMemStore(existing ...Card) *memStore {
	s := &memStore{cards: make(map[string]Card)}
	for _, c := range existing {
		s.cards[c.UUID] = c
	}
	return s
}

func (s *memStore) ListIdentifiers(_ context.Context, visit func(string) error) error {
	s.scans++
	return s.visitCommitted(visit)
}

func (s *memStore) visitCommitted(visit func(string) error) error {
	if s.listErr != nil {
		return s.listErr
	}
	for id := range s.cards {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) Begin(context.Context) (Transaction, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.begun++
	return &memTx{store: s, staged: make(map[string]Card)}, nil
}

// ids returns the committed identifiers, sorted.
func (s *memStore) ids() []string {
	out := make([]string, 0, len(s.cards))
	for id := range s.cards {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

type memTx struct {
	store  *memStore
	staged map[string]Card
	closed bool
}

// ListIdentifiers scans the committed cards on the transaction's connection.
func (tx *memTx) ListIdentifiers(_ context.Context, visit func(string) error) error {
	tx.store.txScans++
	return tx.store.visitCommitted(visit)
}

func (tx *memTx) PersistBatch(_ context.Context, cards []Card) error {
	if tx.closed {
		return errors.New("tx is closed")
	}
	s := tx.store
	s.batchSizes = append(s.batchSizes, len(cards))
	if s.failBatch == len(s.batchSizes) {
		return errors.New("connection reset by peer")
	}
	for _, c := range cards {
		if _, ok := s.cards[c.UUID]; ok {
			return fmt.Errorf("duplicate key value violates unique constraint (uuid)=(%s)", c.UUID)
		}
		if _, ok := tx.staged[c.UUID]; ok {
			return fmt.Errorf("duplicate key value violates unique constraint (uuid)=(%s)", c.UUID)
		}
		tx.staged[c.UUID] = c
	}
	return nil
}

func (tx *memTx) Commit(context.Context) error {
	if tx.store.commitErr != nil {
		return tx.store.commitErr
	}
	for id, c := range tx.staged {
		tx.store.cards[id] = c
	}
	tx.store.commits++
	tx.closed = true
	return nil
}

func (tx *memTx) Rollback(context.Context) error {
	if tx.store.rollbackErr != nil {
		return tx.store.rollbackErr
	}
	tx.store.rollbacks++
	tx.staged = nil
	tx.closed = true
	return nil
}

const testHeader = "uuid,manaValue,manaCost,name,rarity,setCode,subtypes,text,type"

// csvLine builds a well-formed data line for id.
func csvLine(id string) string {
	return id + `,2.0,{1}{G},Card ` + id + `,common,TST,Elf,"Tap: add {G}.",Creature`
}

// writeCSV writes a header plus lines to a temp file and returns its path.
func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.csv")
	body := testHeader + "\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

// generatedLines returns n lines with ids prefix0..prefix(n-1).
func generatedLines(prefix string, n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = csvLine(fmt.Sprintf("%s%d", prefix, i))
	}
	return lines
}
