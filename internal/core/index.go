package core

import "context"

// IdentifierIndex is a read-only snapshot of identifiers already in the store,
// taken once before streaming starts. Writes by other processes after the
// snapshot are not observed.
type IdentifierIndex struct {
	ids map[string]struct{}
}

// LoadIdentifierIndex builds the index from a single full scan of the store.
// Any scan failure is a store error: dedup cannot be trusted without the index.
func LoadIdentifierIndex(ctx context.Context, lister IdentifierLister) (*IdentifierIndex, error) {
	ids := make(map[string]struct{})

	err := lister.ListIdentifiers(ctx, func(id string) error {
		ids[id] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, storeError("load identifier index", err)
	}

	return &IdentifierIndex{ids: ids}, nil
}

// NewIdentifierIndex builds an index from an in-memory list.
func NewIdentifierIndex(ids ...string) *IdentifierIndex {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return &IdentifierIndex{ids: m}
}

// Contains reports whether id was present when the index was loaded.
func (x *IdentifierIndex) Contains(id string) bool {
	_, ok := x.ids[id]
	return ok
}

// Len returns the number of identifiers in the snapshot.
func (x *IdentifierIndex) Len() int {
	return len(x.ids)
}
