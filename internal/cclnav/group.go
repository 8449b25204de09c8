package cclnav

import (
	"context"
	"strings"

	"github.com/msto63/cfdkit/internal/ccl"
	"github.com/msto63/cfdkit/internal/cclstore"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// Group is a handle to one node: a (file, path) pair. Handles are values;
// two handles are equal when they address the same path of the same file.
type Group struct {
	file *File
	path string
}

// Path returns the node path, empty for the root
func (g Group) Path() string { return g.path }

// File returns the file the handle belongs to
func (g Group) File() *File { return g.file }

// IsRoot reports whether g addresses the store root
func (g Group) IsRoot() bool { return g.path == "" }

// Name returns the last path segment, or "root"
func (g Group) Name() string {
	if g.IsRoot() {
		return ccl.RootName
	}
	return cclstore.BaseName(g.path)
}

// Type returns the type tag of the name, e.g. "BOUNDARY"
func (g Group) Type() string {
	if g.IsRoot() {
		return ""
	}
	return ccl.TypeTag(g.Name())
}

// Label returns the part of the name after the type tag, e.g. "inlet" for
// "BOUNDARY: inlet", or the full name when there is no tag
func (g Group) Label() string {
	name := g.Name()
	if i := strings.Index(name, ":"); i >= 0 {
		return strings.TrimSpace(name[i+1:])
	}
	return name
}

func (g Group) String() string {
	return "/" + g.path
}

func (g Group) at(path string) Group {
	return Group{file: g.file, path: cclstore.JoinPath(path)}
}

func (g Group) store() *cclstore.Store {
	return g.file.Store()
}

// Exists reports whether the node still exists
func (g Group) Exists(ctx context.Context) (bool, error) {
	return g.store().Exists(ctx, g.path)
}

// Get returns the group at a path relative to g
func (g Group) Get(ctx context.Context, path string) (Group, error) {
	target := g.at(cclstore.JoinPath(g.path, path))
	if _, err := g.store().Lookup(ctx, target.path); err != nil {
		return Group{}, err
	}
	return target, nil
}

// Child returns the direct child with the given name, falling back to the
// upper-cased name
func (g Group) Child(ctx context.Context, name string) (Group, error) {
	if err := cclstore.ValidateName(name); err != nil {
		return Group{}, err
	}
	child, err := g.Get(ctx, name)
	if err == nil || !cfderror.HasCode(err, cfderror.CodeNotFound) {
		return child, err
	}
	if upper := strings.ToUpper(name); upper != name {
		if child, uerr := g.Get(ctx, upper); uerr == nil {
			return child, nil
		}
	}
	return Group{}, err
}

// Children returns the direct children in store order
func (g Group) Children(ctx context.Context) ([]Group, error) {
	nodes, err := g.store().Children(ctx, g.path)
	if err != nil {
		return nil, err
	}
	children := make([]Group, len(nodes))
	for i, n := range nodes {
		children[i] = g.at(n.Path)
	}
	return children, nil
}

// ChildNames returns the names of the direct children
func (g Group) ChildNames(ctx context.Context) ([]string, error) {
	children, err := g.Children(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name()
	}
	return names, nil
}

// ChildrenOfType returns the direct children whose type tag matches typeTag
func (g Group) ChildrenOfType(ctx context.Context, typeTag string) ([]Group, error) {
	children, err := g.Children(ctx)
	if err != nil {
		return nil, err
	}
	var out []Group
	for _, c := range children {
		if strings.EqualFold(c.Type(), typeTag) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Parent returns the parent group; the root is its own parent
func (g Group) Parent() Group {
	return g.at(cclstore.ParentPath(g.path))
}

// Rename renames the node. The root cannot be renamed and the new name must
// not be taken by a sibling.
func (g Group) Rename(ctx context.Context, newName string) (Group, error) {
	if g.IsRoot() {
		return Group{}, cfderror.New("cannot rename the root group").WithCode(cfderror.CodeInvalidOperation)
	}
	n, err := g.store().Rename(ctx, g.path, newName)
	if err != nil {
		return Group{}, err
	}
	return g.at(n.Path), nil
}

// Delete removes the node and its subtree
func (g Group) Delete(ctx context.Context) error {
	return g.store().Delete(ctx, g.path)
}

// Attributes returns the attribute view of the node
func (g Group) Attributes() Attributes {
	return Attributes{group: g}
}

// Load reads the subtree as a detached group tree
func (g Group) Load(ctx context.Context) (*ccl.Group, error) {
	return g.store().Load(ctx, g.path)
}

// Text returns the subtree as canonical CCL text
func (g Group) Text(ctx context.Context) (string, error) {
	var sb strings.Builder
	if err := g.store().Regenerate(ctx, &sb, g.path, g.file.Step()); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// replace writes tree as the child of g named tree.Name, swapping out any
// existing node of that name
func (g Group) replace(ctx context.Context, tree *ccl.Group) error {
	_, err := g.store().Materialize(ctx, tree, cclstore.MaterializeOptions{
		Parent:    g.path,
		Overwrite: true,
	})
	return err
}

// ensureChild returns the named child, creating an empty node when missing
func (g Group) ensureChild(ctx context.Context, name string) (Group, error) {
	child, err := g.Child(ctx, name)
	if err == nil {
		return child, nil
	}
	if !cfderror.HasCode(err, cfderror.CodeNotFound) {
		return Group{}, err
	}
	n, err := g.store().CreateNode(ctx, g.path, name)
	if err != nil {
		return Group{}, err
	}
	return g.at(n.Path), nil
}
