package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection is a typed view over one named collection in a Store. The zero
// value is not usable; construct with NewCollection.
type Collection[T any] struct {
	store *Store
	name  string
}

// NewCollection binds a record type to a collection name, e.g.
//
//	notes := recordstore.NewCollection[Note](store, "notes")
func NewCollection[T any](store *Store, name string) Collection[T] {
	return Collection[T]{store: store, name: name}
}

// Name returns the collection name.
func (c Collection[T]) Name() string {
	return c.name
}

// Load returns the tenant's full ordered collection. Readers are serialized
// against writers on the same (tenant, collection) key. A tenant with no
// collection file gets an empty slice.
func (c Collection[T]) Load(ctx context.Context, tenantID string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mu := c.store.lock(tenantID, c.name)
	mu.Lock()
	defer mu.Unlock()

	return c.load(tenantID)
}

// Update runs a read-modify-write cycle inside the collection's critical
// section: load the full collection, apply fn, and persist whatever fn
// returns. If fn returns an error the cycle aborts and nothing is written;
// the error passes through unwrapped so callers keep their domain sentinels.
func (c Collection[T]) Update(ctx context.Context, tenantID string, fn func(records []T) ([]T, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mu := c.store.lock(tenantID, c.name)
	mu.Lock()
	defer mu.Unlock()

	records, err := c.load(tenantID)
	if err != nil {
		return err
	}

	updated, err := fn(records)
	if err != nil {
		return err
	}

	return c.save(ctx, tenantID, updated)
}

// load reads and decodes the collection file. Callers must hold the lock.
func (c Collection[T]) load(tenantID string) ([]T, error) {
	path, err := c.store.path(tenantID, c.name)
	if err != nil {
		return nil, err
	}

	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrPersistence, path, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrPersistence, path, err)
	}
	return records, nil
}

// save serializes and writes the full collection. Callers must hold the lock.
func (c Collection[T]) save(ctx context.Context, tenantID string, records []T) error {
	path, err := c.store.path(tenantID, c.name)
	if err != nil {
		return err
	}

	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrPersistence, path, err)
	}

	return c.store.writeFile(ctx, path, data)
}
