package cclstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/msto63/cfdkit/internal/ccl"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// Node is one addressable group in the store
type Node struct {
	ID       int64
	Name     string
	Path     string
	Position int
}

// IsRoot reports whether n is the store root
func (n Node) IsRoot() bool {
	return n.ID == rootID
}

// SplitPath splits a "/"-separated node path. "" and "/" address the root.
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// JoinPath joins path segments into a node path
func JoinPath(segments ...string) string {
	var parts []string
	for _, s := range segments {
		parts = append(parts, SplitPath(s)...)
	}
	return strings.Join(parts, "/")
}

// ParentPath returns the path of the parent node; the root's parent is the root
func ParentPath(path string) string {
	parts := SplitPath(path)
	if len(parts) <= 1 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], "/")
}

// BaseName returns the last path segment, or empty for the root
func BaseName(path string) string {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// ValidateName rejects names that cannot be addressed by a path
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return cfderror.New("node name must not be empty").WithCode(cfderror.CodeInvalidInput)
	}
	if strings.Contains(name, "/") {
		return cfderror.Newf(cfderror.CodeInvalidInput, "node name must not contain '/': %q", name)
	}
	return nil
}

func notFound(path string) error {
	return cfderror.Newf(cfderror.CodeNotFound, "node not found: /%s", strings.Trim(path, "/")).WithDetail("path", path)
}

func (s *Store) resolve(ctx context.Context, q querier, path string) (int64, error) {
	id := rootID
	for _, seg := range SplitPath(path) {
		err := q.QueryRowContext(ctx, `SELECT id FROM nodes WHERE parent_id = ? AND name = ?`, id, seg).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, notFound(path)
		}
		if err != nil {
			return 0, dbError(err, "failed to resolve path")
		}
	}
	return id, nil
}

// child returns the id and position of a named child, found is false if absent
func (s *Store) child(ctx context.Context, q querier, parentID int64, name string) (id int64, position int, found bool, err error) {
	err = q.QueryRowContext(ctx, `SELECT id, position FROM nodes WHERE parent_id = ? AND name = ?`, parentID, name).Scan(&id, &position)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, dbError(err, "failed to look up child")
	}
	return id, position, true, nil
}

func (s *Store) nextPosition(ctx context.Context, q querier, parentID int64) (int, error) {
	var pos int
	err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM nodes WHERE parent_id = ?`, parentID).Scan(&pos)
	if err != nil {
		return 0, dbError(err, "failed to compute position")
	}
	return pos, nil
}

func (s *Store) insertNode(ctx context.Context, q querier, parentID int64, name string, position int) (int64, error) {
	result, err := q.ExecContext(ctx, `INSERT INTO nodes (parent_id, name, position) VALUES (?, ?, ?)`, parentID, name, position)
	if err != nil {
		return 0, dbError(err, "failed to create node")
	}
	return result.LastInsertId()
}

// Lookup returns the node at path
func (s *Store) Lookup(ctx context.Context, path string) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.resolve(ctx, s.db, path)
	if err != nil {
		return Node{}, err
	}
	n := Node{ID: id, Path: JoinPath(path), Name: BaseName(path)}
	if id == rootID {
		n.Name = ccl.RootName
		return n, nil
	}
	if err := s.db.QueryRowContext(ctx, `SELECT position FROM nodes WHERE id = ?`, id).Scan(&n.Position); err != nil {
		return Node{}, dbError(err, "failed to read node")
	}
	return n, nil
}

// Exists reports whether a node exists at path
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.Lookup(ctx, path)
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Children returns the direct children of path in position order
func (s *Store) Children(ctx context.Context, path string) ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.resolve(ctx, s.db, path)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, position FROM nodes WHERE parent_id = ? ORDER BY position, id`, id)
	if err != nil {
		return nil, dbError(err, "failed to list children")
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.ID, &n.Name, &n.Position); err != nil {
			return nil, dbError(err, "failed to scan node")
		}
		n.Path = JoinPath(path, n.Name)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Attributes returns the attributes of path in store order
func (s *Store) Attributes(ctx context.Context, path string) (ccl.Attributes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.resolve(ctx, s.db, path)
	if err != nil {
		return nil, err
	}
	return s.attributes(ctx, s.db, id)
}

func (s *Store) attributes(ctx context.Context, q querier, nodeID int64) (ccl.Attributes, error) {
	rows, err := q.QueryContext(ctx, `SELECT key, value FROM attributes WHERE node_id = ? ORDER BY position`, nodeID)
	if err != nil {
		return nil, dbError(err, "failed to list attributes")
	}
	defer rows.Close()

	var attrs ccl.Attributes
	for rows.Next() {
		a := ccl.Attribute{Line: -1}
		if err := rows.Scan(&a.Key, &a.Value); err != nil {
			return nil, dbError(err, "failed to scan attribute")
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// Attribute returns one attribute value
func (s *Store) Attribute(ctx context.Context, path, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.resolve(ctx, s.db, path)
	if err != nil {
		return "", err
	}

	var value string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM attributes WHERE node_id = ? AND key = ?`, id, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", cfderror.Newf(cfderror.CodeNotFound, "attribute not found: %s on /%s", key, JoinPath(path)).
			WithDetail("path", path).WithDetail("key", key)
	}
	if err != nil {
		return "", dbError(err, "failed to read attribute")
	}
	return value, nil
}

// SetAttribute creates or updates an attribute. An update keeps the position.
func (s *Store) SetAttribute(ctx context.Context, path, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolve(ctx, s.db, path)
	if err != nil {
		return err
	}
	return s.setAttribute(ctx, s.db, id, key, value)
}

func (s *Store) setAttribute(ctx context.Context, q querier, nodeID int64, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return cfderror.New("attribute key must not be empty").WithCode(cfderror.CodeInvalidInput)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO attributes (node_id, key, value, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM attributes WHERE node_id = ?))
		ON CONFLICT(node_id, key) DO UPDATE SET value = excluded.value
	`, nodeID, key, strings.TrimSpace(value), nodeID)
	if err != nil {
		return dbError(err, "failed to write attribute")
	}
	return nil
}

// DeleteAttribute removes an attribute
func (s *Store) DeleteAttribute(ctx context.Context, path, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolve(ctx, s.db, path)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM attributes WHERE node_id = ? AND key = ?`, id, key)
	if err != nil {
		return dbError(err, "failed to delete attribute")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return cfderror.Newf(cfderror.CodeNotFound, "attribute not found: %s on /%s", key, JoinPath(path))
	}
	return nil
}

// CreateNode creates an empty child node below parentPath
func (s *Store) CreateNode(ctx context.Context, parentPath, name string) (Node, error) {
	if err := ValidateName(name); err != nil {
		return Node{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parentID, err := s.resolve(ctx, s.db, parentPath)
	if err != nil {
		return Node{}, err
	}
	if _, _, found, err := s.child(ctx, s.db, parentID, name); err != nil {
		return Node{}, err
	} else if found {
		return Node{}, alreadyExists(JoinPath(parentPath, name))
	}

	pos, err := s.nextPosition(ctx, s.db, parentID)
	if err != nil {
		return Node{}, err
	}
	id, err := s.insertNode(ctx, s.db, parentID, name, pos)
	if err != nil {
		return Node{}, err
	}
	return Node{ID: id, Name: name, Path: JoinPath(parentPath, name), Position: pos}, nil
}

// Delete removes the node at path and its subtree
func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolve(ctx, s.db, path)
	if err != nil {
		return err
	}
	if id == rootID {
		return cfderror.New("cannot delete the store root").WithCode(cfderror.CodeInvalidOperation)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return dbError(err, "failed to delete node")
	}
	return nil
}

// Rename gives the node at path a new name below the same parent
func (s *Store) Rename(ctx context.Context, path, newName string) (Node, error) {
	return s.Move(ctx, path, ParentPath(path), newName)
}

// Move re-parents and renames the node at path
func (s *Store) Move(ctx context.Context, path, newParentPath, newName string) (Node, error) {
	if err := ValidateName(newName); err != nil {
		return Node{}, err
	}

	src := JoinPath(path)
	dst := JoinPath(newParentPath)
	if src == "" {
		return Node{}, cfderror.New("cannot move or rename the store root").WithCode(cfderror.CodeInvalidOperation)
	}
	if dst == src || strings.HasPrefix(dst, src+"/") {
		return Node{}, cfderror.Newf(cfderror.CodeInvalidOperation, "cannot move /%s below itself", src)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Node{}, dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	id, err := s.resolve(ctx, tx, src)
	if err != nil {
		return Node{}, err
	}
	oldParentID, err := s.resolve(ctx, tx, ParentPath(src))
	if err != nil {
		return Node{}, err
	}
	parentID, err := s.resolve(ctx, tx, dst)
	if err != nil {
		return Node{}, err
	}

	existing, _, found, err := s.child(ctx, tx, parentID, newName)
	if err != nil {
		return Node{}, err
	}
	if found && existing != id {
		return Node{}, alreadyExists(JoinPath(dst, newName))
	}

	var pos int
	if parentID == oldParentID {
		if err := tx.QueryRowContext(ctx, `SELECT position FROM nodes WHERE id = ?`, id).Scan(&pos); err != nil {
			return Node{}, dbError(err, "failed to read node")
		}
	} else if pos, err = s.nextPosition(ctx, tx, parentID); err != nil {
		return Node{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE nodes SET parent_id = ?, name = ?, position = ? WHERE id = ?`, parentID, newName, pos, id); err != nil {
		return Node{}, dbError(err, "failed to move node")
	}
	if err := tx.Commit(); err != nil {
		return Node{}, dbError(err, "failed to commit move")
	}

	return Node{ID: id, Name: newName, Path: JoinPath(dst, newName), Position: pos}, nil
}

func alreadyExists(path string) *cfderror.Error {
	return cfderror.Newf(cfderror.CodeAlreadyExists, "node already exists: /%s", path).WithDetail("path", path)
}
