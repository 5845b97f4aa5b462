package tools

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docindex/mcp-server/internal/config"
	"github.com/docindex/mcp-server/internal/indexing"
)

// ErrNotLoaded is returned when no table has been loaded yet
var ErrNotLoaded = errors.New("search index not loaded")

// Snapshot is one loaded generation of the artifact.
// Snapshots are immutable; a reload stores a new one.
type Snapshot struct {
	Table    *indexing.Table
	Source   string    // File the table was read from, or "embedded"
	ModTime  time.Time // Modification time of Source when it was read
	Digest   [sha256.Size]byte
	LoadedAt time.Time
}

// TableSource gives read-only access to the current snapshot
type TableSource interface {
	Snapshot() (*Snapshot, error)
}

// Store holds the currently served table
type Store struct {
	indexFile string
	dataDir   string
	provider  DataProvider
	lock      *fileLock

	// current is swapped as a whole; readers never take a lock
	current atomic.Pointer[Snapshot]

	// refreshMu serializes Initialize and Reload
	refreshMu sync.Mutex
}

var _ TableSource = (*Store)(nil)

// NewStore creates a store for the artifact configured in cfg.
// Nothing is read until Initialize or the first Snapshot call.
func NewStore(cfg *config.Config) *Store {
	return &Store{
		indexFile: cfg.IndexFile,
		dataDir:   cfg.DataDir,
		provider:  defaultDataProvider,
		lock:      newFileLock(cfg.DataDir, cfg.LockTimeout),
	}
}

// IndexFile returns the path of the served artifact
func (s *Store) IndexFile() string {
	return s.indexFile
}

// Initialize loads the artifact, extracting the bundled default when the file
// does not exist yet. A malformed artifact is reported, never replaced.
func (s *Store) Initialize() error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.current.Load() != nil {
		return nil
	}

	startTime := time.Now()
	log.Printf("Initializing search index from %s...", s.indexFile)

	if _, err := os.Stat(s.indexFile); errors.Is(err, os.ErrNotExist) {
		log.Printf("No local search index found, extracting bundled artifact...")
		if err := s.extractEmbedded(); err != nil {
			return fmt.Errorf("failed to extract bundled search index: %w", err)
		}
	}

	snap, err := s.readSnapshot()
	if err != nil {
		return err
	}
	s.current.Store(snap)

	log.Printf("✓ Search index initialized (%d records) in %v",
		snap.Table.Len(), time.Since(startTime).Round(time.Millisecond))
	return nil
}

// extractEmbedded writes the bundled artifact to the configured path
func (s *Store) extractEmbedded() error {
	data, err := s.provider.ReadFile(embeddedIndexPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", embeddedIndexPath, err)
	}

	// Refuse to install a bundled artifact that would not load
	table, err := indexing.Parse(data)
	if err != nil {
		return fmt.Errorf("bundled artifact is invalid: %w", err)
	}

	if err := s.lock.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	// Another process may have written it while we waited for the lock
	if _, err := os.Stat(s.indexFile); err == nil {
		return nil
	}

	if err := indexing.WriteFile(s.indexFile, table, indexing.FormatJS); err != nil {
		return err
	}
	log.Printf("✓ Bundled search index extracted to %s", s.indexFile)
	return nil
}

// readArtifact returns the artifact bytes with their modification time
func (s *Store) readArtifact() ([]byte, time.Time, error) {
	info, err := os.Stat(s.indexFile)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to stat search index: %w", err)
	}
	data, err := os.ReadFile(s.indexFile)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read search index: %w", err)
	}
	return data, info.ModTime(), nil
}

func (s *Store) readSnapshot() (*Snapshot, error) {
	data, modTime, err := s.readArtifact()
	if err != nil {
		return nil, err
	}
	return s.parseSnapshot(data, modTime)
}

func (s *Store) parseSnapshot(data []byte, modTime time.Time) (*Snapshot, error) {
	table, err := indexing.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.indexFile, err)
	}

	return &Snapshot{
		Table:    table,
		Source:   s.indexFile,
		ModTime:  modTime,
		Digest:   sha256.Sum256(data),
		LoadedAt: time.Now(),
	}, nil
}

// Snapshot returns the current table, initializing the store on first use
func (s *Store) Snapshot() (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	log.Printf("Search index not initialized, initializing now...")
	if err := s.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotLoaded, err)
	}

	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Reload re-reads the artifact and swaps it in.
// Without force the swap is skipped when the file content is unchanged since the
// last load; timestamps are not trusted since copies may preserve them.
// On failure the previous table keeps being served.
func (s *Store) Reload(force bool) (snap *Snapshot, updated bool, err error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	prev := s.current.Load()
	startTime := time.Now()

	data, modTime, err := s.readArtifact()
	if err != nil {
		return prev, false, fmt.Errorf("reload failed: %w", err)
	}
	if !force && prev != nil && sha256.Sum256(data) == prev.Digest {
		return prev, false, nil
	}

	next, err := s.parseSnapshot(data, modTime)
	if err != nil {
		return prev, false, fmt.Errorf("reload failed: %w", err)
	}

	s.current.Store(next)
	log.Printf("✓ Search index reloaded (%d records) in %v",
		next.Table.Len(), time.Since(startTime).Round(time.Millisecond))
	return next, true, nil
}

// WriteArtifact replaces the artifact on disk with t and serves it.
// The file is written under the index lock via temp file and rename.
func (s *Store) WriteArtifact(t *indexing.Table) (*Snapshot, error) {
	if err := s.lock.Acquire(); err != nil {
		return nil, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	if err := indexing.WriteFile(s.indexFile, t, indexing.FormatJS); err != nil {
		return nil, err
	}

	snap, _, err := s.Reload(true)
	return snap, err
}

// Close drops the current table. The index lock is only held during writes
// and is already released at this point.
func (s *Store) Close() error {
	s.current.Store(nil)
	return nil
}
