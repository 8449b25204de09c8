package cclstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/cfdkit/internal/ccl"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
	"github.com/msto63/cfdkit/foundation/utils/filex"
	"github.com/msto63/cfdkit/pkg/core/logging"
)

// ConflictPolicy decides what happens when a node exists and overwrite is off
type ConflictPolicy int

const (
	// ConflictFail aborts the whole call with CodeAlreadyExists
	ConflictFail ConflictPolicy = iota
	// ConflictSkip keeps the existing subtree and continues with siblings
	ConflictSkip
)

func (p ConflictPolicy) String() string {
	if p == ConflictSkip {
		return "skip"
	}
	return "fail"
}

// ParseConflictPolicy parses "fail" or "skip"; empty means fail
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return ConflictFail, nil
	case "skip":
		return ConflictSkip, nil
	default:
		return ConflictFail, cfderror.Newf(cfderror.CodeInvalidInput, "unknown conflict policy: %q", s)
	}
}

// stagingPrefix marks nodes that are being written and not yet swapped in
const stagingPrefix = ".staging-"

// MaterializeOptions controls where and how a group is written
type MaterializeOptions struct {
	// Parent is the path of the node that receives the group
	Parent string
	// AsRoot writes the group's attributes onto Parent itself and its
	// children below Parent, without a wrapping node
	AsRoot    bool
	Overwrite bool
	Conflict  ConflictPolicy
}

// MaterializeResult counts what a call wrote
type MaterializeResult struct {
	Nodes      int
	Attributes int
	Replaced   int
	Skipped    []string
}

type materializer struct {
	s      *Store
	tx     *sql.Tx
	opts   MaterializeOptions
	result MaterializeResult
}

// Materialize writes g into the store in a single transaction. Any error
// rolls back the whole call. An existing node is replaced by writing the new
// subtree under a staging name first and swapping it in afterwards.
func (s *Store) Materialize(ctx context.Context, g *ccl.Group, opts MaterializeOptions) (result MaterializeResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := s.log.StartTimer("materialize").
		WithField("store", s.path).
		WithField("group", g.Name)
	defer func() {
		timer.WithField("nodes", result.Nodes).StopWithError(err)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	parentID, err := s.resolve(ctx, tx, opts.Parent)
	if err != nil {
		return result, err
	}

	m := &materializer{s: s, tx: tx, opts: opts}
	if opts.AsRoot {
		for _, attr := range g.Attributes {
			if err := s.setAttribute(ctx, tx, parentID, attr.Key, attr.Value); err != nil {
				return result, err
			}
			m.result.Attributes++
		}
		for _, c := range g.Children {
			if err := m.place(ctx, parentID, JoinPath(opts.Parent), c); err != nil {
				return m.result, err
			}
		}
	} else if err := m.place(ctx, parentID, JoinPath(opts.Parent), g); err != nil {
		return m.result, err
	}

	if err := tx.Commit(); err != nil {
		return m.result, dbError(err, "failed to commit materialization")
	}
	return m.result, nil
}

// place writes g as a child of parentID, applying the conflict rules
func (m *materializer) place(ctx context.Context, parentID int64, parentPath string, g *ccl.Group) error {
	if err := ValidateName(g.Name); err != nil {
		return err
	}
	path := JoinPath(parentPath, g.Name)

	existingID, pos, found, err := m.s.child(ctx, m.tx, parentID, g.Name)
	if err != nil {
		return err
	}

	switch {
	case !found:
		pos, err := m.s.nextPosition(ctx, m.tx, parentID)
		if err != nil {
			return err
		}
		_, err = m.write(ctx, parentID, g.Name, pos, g)
		return err

	case m.opts.Overwrite:
		staged, err := m.write(ctx, parentID, stagingPrefix+uuid.NewString(), pos, g)
		if err != nil {
			return err
		}
		if _, err := m.tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, existingID); err != nil {
			return dbError(err, "failed to remove replaced node")
		}
		if _, err := m.tx.ExecContext(ctx, `UPDATE nodes SET name = ? WHERE id = ?`, g.Name, staged); err != nil {
			return dbError(err, "failed to swap staged node")
		}
		m.result.Replaced++
		return nil

	case m.opts.Conflict == ConflictSkip:
		m.s.log.Warn("Node exists, keeping existing subtree", "path", "/"+path)
		m.result.Skipped = append(m.result.Skipped, path)
		return nil

	default:
		return alreadyExists(path).WithOperation("cclstore.Materialize")
	}
}

// write inserts g and its whole subtree as a fresh node
func (m *materializer) write(ctx context.Context, parentID int64, name string, pos int, g *ccl.Group) (int64, error) {
	id, err := m.s.insertNode(ctx, m.tx, parentID, name, pos)
	if err != nil {
		return 0, err
	}
	m.result.Nodes++

	for _, attr := range g.Attributes {
		if err := m.s.setAttribute(ctx, m.tx, id, attr.Key, attr.Value); err != nil {
			return 0, err
		}
		m.result.Attributes++
	}

	seen := make(map[string]bool, len(g.Children))
	for i, c := range g.Children {
		if err := ValidateName(c.Name); err != nil {
			return 0, err
		}
		if seen[c.Name] {
			return 0, cfderror.Newf(cfderror.CodeInvalidInput, "duplicate child name %q below %q", c.Name, g.Name)
		}
		seen[c.Name] = true
		if _, err := m.write(ctx, id, c.Name, i, c); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// BuildOptions configures Build
type BuildOptions struct {
	Step   int
	Source string
	Logger *logging.Logger
}

// Build creates a fresh store file at path from doc. The store is written
// to a temporary file next to path and renamed over it on success.
func Build(ctx context.Context, doc *ccl.Document, path string, opts BuildOptions) (MaterializeResult, error) {
	tmp := filex.TempSibling(path)
	cleanup := func() {
		for _, p := range []string{tmp, tmp + "-wal", tmp + "-shm"} {
			os.Remove(p)
		}
	}

	st, err := Open(Config{Path: tmp, Create: true, Logger: opts.Logger})
	if err != nil {
		return MaterializeResult{}, err
	}

	result, err := st.Materialize(ctx, doc.Root, MaterializeOptions{AsRoot: true})
	if err == nil {
		step := opts.Step
		if step <= 0 {
			step = doc.Step
		}
		source := opts.Source
		if source == "" {
			source = doc.Source
		}
		meta := map[string]string{
			MetaSource:  source,
			MetaStep:    fmt.Sprint(step),
			MetaCreated: time.Now().UTC().Format(time.RFC3339),
		}
		for k, v := range meta {
			if err = st.SetMeta(ctx, k, v); err != nil {
				break
			}
		}
	}

	if cerr := st.Close(); err == nil && cerr != nil {
		err = dbError(cerr, "failed to close store")
	}
	if err != nil {
		cleanup()
		return result, err
	}

	for _, p := range []string{path + "-wal", path + "-shm"} {
		os.Remove(p)
	}
	if err := os.Rename(tmp, path); err != nil {
		cleanup()
		return result, cfderror.Wrap(err, "failed to replace store").WithCode(cfderror.CodeDatabaseError).WithDetail("path", path)
	}
	return result, nil
}
