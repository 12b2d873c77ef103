// Package recordstore persists per-tenant record collections as whole JSON
// files with per-collection mutual exclusion.
//
// Each (tenant, collection) pair maps to a single file under the data root:
//
//	<root>/<tenant>/<collection>.json
//
// The file holds the entire ordered collection as a JSON array and is
// rewritten in full on every mutation. Callers mutate through Update, which
// runs the whole read-modify-write cycle inside the collection's critical
// section; partial updates are not supported. Readers take the same lock so
// they never observe a collection mid-write.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/tenant"
)

// ErrPersistence is returned when a write fails after exhausting retries.
// The mutation was not applied; the on-disk collection is unchanged.
var ErrPersistence = errors.New("persistence failure")

const (
	// maxWriteAttempts bounds retries on transient write failure.
	maxWriteAttempts = 3

	// defaultBackoff is the base delay between write attempts; the actual
	// delay grows linearly with the attempt number.
	defaultBackoff = 100 * time.Millisecond
)

// Store provides locked whole-file access to per-tenant collections.
//
// Locks are created lazily, one per distinct (tenant, collection) key, and
// never reclaimed. Growth is bounded by active tenant and collection
// cardinality, which is operationally small; LockCount exposes the registry
// size for monitoring.
type Store struct {
	root    string
	logger  *zap.Logger
	backoff time.Duration

	locks     sync.Map // "tenant/collection" -> *sync.Mutex
	lockCount atomic.Int64

	// writeDelay widens the write window in concurrency tests. Zero in
	// production.
	writeDelay time.Duration
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		root:    dir,
		logger:  logger.Named("recordstore"),
		backoff: defaultBackoff,
	}
}

// Root returns the data root directory.
func (s *Store) Root() string {
	return s.root
}

// LockCount returns the number of lock registry entries created so far.
func (s *Store) LockCount() int {
	return int(s.lockCount.Load())
}

// lock returns the mutex for a (tenant, collection) key, creating it on
// first use.
func (s *Store) lock(tenantID, collection string) *sync.Mutex {
	key := tenantID + "/" + collection
	if mu, ok := s.locks.Load(key); ok {
		return mu.(*sync.Mutex)
	}
	mu, loaded := s.locks.LoadOrStore(key, &sync.Mutex{})
	if !loaded {
		s.lockCount.Add(1)
	}
	return mu.(*sync.Mutex)
}

// path resolves the collection file, ensuring the tenant directory exists.
func (s *Store) path(tenantID, collection string) (string, error) {
	dir, err := tenant.Dir(s.root, tenantID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, collection+".json"), nil
}

// writeFile persists data with temp-file-then-rename visibility and bounded
// retry. The collection file never holds a partial write: readers see either
// the previous contents or the complete new contents.
func (s *Store) writeFile(ctx context.Context, path string, data []byte) error {
	var lastErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		if s.writeDelay > 0 {
			time.Sleep(s.writeDelay)
		}

		lastErr = atomicWrite(path, data)
		if lastErr == nil {
			return nil
		}

		s.logger.Warn("collection write failed",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)

		if attempt < maxWriteAttempts {
			time.Sleep(s.backoff * time.Duration(attempt))
		}
	}
	return fmt.Errorf("%w: writing %s after %d attempts: %v",
		ErrPersistence, path, maxWriteAttempts, lastErr)
}

// atomicWrite serializes to a temp file in the target directory, syncs it,
// and renames it over the destination.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// readFile loads the raw collection file. A missing file is an empty
// collection, never an error.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}
