// ============================================================================
// cfdkit - CFX Case Automation Toolkit
// ============================================================================
//
// Package:     cclstore
// Description: SQLite-backed hierarchical attribute store for CCL trees
// Author:      Mike Stoffels
// Created:     2026-10-02
// License:     MIT
// ============================================================================

package cclstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
	"github.com/msto63/cfdkit/foundation/utils/filex"
	"github.com/msto63/cfdkit/pkg/core/logging"
	"github.com/msto63/cfdkit/pkg/core/version"
)

// DefaultSuffix is the file suffix of a store
const DefaultSuffix = ".ccldb"

// rootID is the node id of the store root
const rootID int64 = 1

// Meta keys written by Build
const (
	MetaFormatVersion = "format_version"
	MetaSource        = "source"
	MetaStep          = "indent_step"
	MetaCreated       = "created"
)

// Store is a hierarchical, attributed, named-node store in one SQLite file
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	log  *logging.Logger
}

// Config holds configuration for opening a store
type Config struct {
	Path string
	// Create allows opening a path that does not exist yet
	Create bool
	Logger *logging.Logger
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Open opens the store at cfg.Path and ensures the schema exists
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, cfderror.New("store path is required").WithCode(cfderror.CodeInvalidInput)
	}
	if !cfg.Create && !filex.IsFile(cfg.Path) {
		return nil, cfderror.Newf(cfderror.CodeNotFound, "store not found: %s", cfg.Path)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=1")
	if err != nil {
		return nil, dbError(err, "failed to open database")
	}
	// one connection keeps the foreign key pragma and transactions on the same handle
	db.SetMaxOpenConns(1)

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("cclstore")
	}

	s := &Store{db: db, path: cfg.Path, log: logger}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY,
		parent_id INTEGER REFERENCES nodes(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		UNIQUE(parent_id, name)
	);

	CREATE TABLE IF NOT EXISTS attributes (
		node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY(node_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);

	INSERT OR IGNORE INTO nodes (id, parent_id, name, position) VALUES (1, NULL, 'root', 0);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return dbError(err, "failed to initialize schema")
	}

	if _, ok, err := s.meta(ctx, s.db, MetaFormatVersion); err != nil {
		return err
	} else if !ok {
		return s.setMeta(ctx, s.db, MetaFormatVersion, strconv.Itoa(version.StoreFormat))
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the store file path
func (s *Store) Path() string {
	return s.path
}

// ModTime returns the newest modification time of the database file and its
// write-ahead log
func (s *Store) ModTime() (time.Time, error) {
	return ModTime(s.path)
}

// ModTime returns the store modification time for a store file path
func ModTime(path string) (time.Time, error) {
	mt, ok := filex.LatestModTime(path, path+"-wal")
	if !ok {
		return time.Time{}, cfderror.Newf(cfderror.CodeNotFound, "store not found: %s", path)
	}
	return mt, nil
}

// Meta returns a metadata value
func (s *Store) Meta(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta(ctx, s.db, key)
}

// SetMeta sets a metadata value
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMeta(ctx, s.db, key, value)
}

func (s *Store) meta(ctx context.Context, q querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, dbError(err, "failed to read meta")
	}
	return value, true, nil
}

func (s *Store) setMeta(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return dbError(err, "failed to write meta")
	}
	return nil
}

// Statistics returns node and attribute counts
func (s *Store) Statistics(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})

	var nodes, attrs int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&nodes); err != nil {
		return nil, dbError(err, "failed to count nodes")
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attributes`).Scan(&attrs); err != nil {
		return nil, dbError(err, "failed to count attributes")
	}
	stats["nodes"] = nodes
	stats["attributes"] = attrs
	stats["path"] = s.path

	return stats, nil
}

func dbError(err error, message string) error {
	return cfderror.Wrap(err, message).WithCode(cfderror.CodeDatabaseError)
}
