package cclstore

import (
	"context"
	"database/sql"
	"io"

	"github.com/msto63/cfdkit/internal/ccl"
	"github.com/msto63/cfdkit/foundation/utils/filex"
)

const subtreeCTE = `
	WITH RECURSIVE sub(id) AS (
		SELECT ?
		UNION ALL
		SELECT n.id FROM nodes n JOIN sub ON n.parent_id = sub.id
	)`

// Load reads the subtree at path into a group tree. Loading the root
// returns a synthetic "root" group.
func (s *Store) Load(ctx context.Context, path string) (*ccl.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top, err := s.resolve(ctx, s.db, path)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, subtreeCTE+`
		SELECT n.id, n.parent_id, n.name FROM nodes n JOIN sub ON n.id = sub.id
		ORDER BY n.position, n.id
	`, top)
	if err != nil {
		return nil, dbError(err, "failed to load nodes")
	}

	type loaded struct {
		id     int64
		parent sql.NullInt64
		group  *ccl.Group
	}
	var order []loaded
	groups := make(map[int64]*ccl.Group)

	for rows.Next() {
		var (
			l    loaded
			name string
		)
		if err := rows.Scan(&l.id, &l.parent, &name); err != nil {
			rows.Close()
			return nil, dbError(err, "failed to scan node")
		}
		if l.id == rootID {
			l.group = &ccl.Group{Name: ccl.RootName, Start: -1, End: -1}
		} else {
			l.group = ccl.NewGroup(name)
		}
		groups[l.id] = l.group
		order = append(order, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "failed to load nodes")
	}

	for _, l := range order {
		if l.id == top || !l.parent.Valid {
			continue
		}
		if parent, ok := groups[l.parent.Int64]; ok {
			parent.Children = append(parent.Children, l.group)
		}
	}

	attrRows, err := s.db.QueryContext(ctx, subtreeCTE+`
		SELECT a.node_id, a.key, a.value FROM attributes a JOIN sub ON a.node_id = sub.id
		ORDER BY a.node_id, a.position
	`, top)
	if err != nil {
		return nil, dbError(err, "failed to load attributes")
	}
	defer attrRows.Close()

	for attrRows.Next() {
		var (
			id  int64
			key string
			val string
		)
		if err := attrRows.Scan(&id, &key, &val); err != nil {
			return nil, dbError(err, "failed to scan attribute")
		}
		if g, ok := groups[id]; ok {
			g.Attributes = append(g.Attributes, ccl.Attribute{Key: key, Value: val, Line: -1})
		}
	}
	if err := attrRows.Err(); err != nil {
		return nil, dbError(err, "failed to load attributes")
	}

	return groups[top], nil
}

// Document loads the whole store as a document
func (s *Store) Document(ctx context.Context, step int) (*ccl.Document, error) {
	root, err := s.Load(ctx, "")
	if err != nil {
		return nil, err
	}
	if step <= 0 {
		step = ccl.DefaultStep
	}
	return &ccl.Document{Root: root, Step: step, Source: s.path}, nil
}

// Regenerate writes the subtree at path as canonical CCL text. The root is
// written without a header, any other node starts at depth 0.
func (s *Store) Regenerate(ctx context.Context, w io.Writer, path string, step int) error {
	g, err := s.Load(ctx, path)
	if err != nil {
		return err
	}
	if JoinPath(path) == "" {
		return ccl.RegenerateDocument(w, g, step)
	}
	return ccl.Regenerate(w, g, 0, step)
}

// WriteText regenerates the whole store into a text file, replacing it atomically
func (s *Store) WriteText(ctx context.Context, textPath string, step int) error {
	return filex.WriteAtomicFunc(textPath, 0644, func(w io.Writer) error {
		return s.Regenerate(ctx, w, "", step)
	})
}
