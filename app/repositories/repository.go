package repositories

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Store owns the badger database and the repositories built on it.
type Store struct {
	db       *badger.DB
	mutex    sync.Mutex
	Posts    *BadgerPostRepository
	Comments *BadgerCommentRepository
}

// Open opens the badger database at path. An empty path opens an in-memory
// database, which is what the tests use.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{logger: logger.With().Str("component", "badger").Logger()}).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return NewStore(db), nil
}

// NewStore wraps an already open database.
func NewStore(db *badger.DB) *Store {
	return &Store{
		db:       db,
		Posts:    NewBadgerPostRepository(db),
		Comments: NewBadgerCommentRepository(db),
	}
}

// DB exposes the underlying database.
func (s *Store) DB() *badger.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.Close()
}

// Clear drops every post, comment and sequence.
func (s *Store) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.DropAll()
}

// Backup writes a full backup of the database to w.
func (s *Store) Backup(w io.Writer) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, err := s.db.Backup(w, 0); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	return nil
}

// Load restores a backup produced by Backup.
func (s *Store) Load(r io.Reader) (err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic occurred during restore: %v", rec)
		}
	}()
	if err := s.db.Load(r, 4); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	return nil
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
