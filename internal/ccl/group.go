package ccl

import (
	"strings"
)

// RootName is the synthetic name of the top-level group
const RootName = "root"

// Attribute is one "key = value" pair of a group
type Attribute struct {
	Key   string
	Value string
	// Line is the index into Document.Lines, or -1 when not parsed from text
	Line int
}

// Attributes is an ordered list of attributes with unique keys
type Attributes []Attribute

// Get returns the value for key
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present
func (a Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Keys returns the keys in order
func (a Attributes) Keys() []string {
	keys := make([]string, len(a))
	for i, attr := range a {
		keys[i] = attr.Key
	}
	return keys
}

// Set replaces the value of an existing key in place or appends a new one
func (a *Attributes) Set(key, value string) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attribute{Key: key, Value: value, Line: -1})
}

// Group is one named block of a CCL tree
type Group struct {
	Name  string // header text with the trailing colon stripped
	Type  string // text before the first colon of Name, or empty
	Start int    // index of the header line, -1 for the root
	End   int    // exclusive end index into the document lines
	Depth int    // indentation of the header line

	Attributes Attributes
	Children   []*Group
}

// NewGroup returns a detached group with the type tag derived from name
func NewGroup(name string) *Group {
	return &Group{
		Name:  name,
		Type:  TypeTag(name),
		Start: -1,
		End:   -1,
	}
}

// TypeTag returns the text before the first colon of name, or empty
func TypeTag(name string) string {
	i := strings.Index(name, ":")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(name[:i])
}

// HeaderName strips the trailing colon and surrounding whitespace of a header line
func HeaderName(text string) string {
	name := strings.TrimSpace(text)
	name = strings.TrimSuffix(name, ":")
	return strings.TrimSpace(name)
}

// IsRoot reports whether g is a synthetic root
func (g *Group) IsRoot() bool {
	return g.Name == RootName && g.Start < 0
}

// Child returns the direct child with the given name
func (g *Group) Child(name string) *Group {
	for _, c := range g.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildNames returns the child names in discovery order
func (g *Group) ChildNames() []string {
	names := make([]string, len(g.Children))
	for i, c := range g.Children {
		names[i] = c.Name
	}
	return names
}

// ChildrenOfType returns the direct children with the given type tag
func (g *Group) ChildrenOfType(typeTag string) []*Group {
	var out []*Group
	for _, c := range g.Children {
		if strings.EqualFold(c.Type, typeTag) {
			out = append(out, c)
		}
	}
	return out
}

// AddChild appends c, or replaces an existing child of the same name in
// place. It reports whether a child was replaced.
func (g *Group) AddChild(c *Group) bool {
	for i, existing := range g.Children {
		if existing.Name == c.Name {
			g.Children[i] = c
			return true
		}
	}
	g.Children = append(g.Children, c)
	return false
}

// Lookup resolves a "/"-separated path of child names below g
func (g *Group) Lookup(path string) *Group {
	cur := g
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		cur = cur.Child(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Walk calls fn for g and every descendant in depth-first order.
// Returning false from fn skips the subtree.
func (g *Group) Walk(fn func(g *Group, depth int) bool) {
	g.walk(fn, 0)
}

func (g *Group) walk(fn func(*Group, int) bool, depth int) {
	if !fn(g, depth) {
		return
	}
	for _, c := range g.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of groups and attributes in the subtree
func (g *Group) Count() (groups, attributes int) {
	g.Walk(func(n *Group, _ int) bool {
		groups++
		attributes += len(n.Attributes)
		return true
	})
	return groups, attributes
}

// Equal reports whether both trees have the same names, attributes and
// child order. Line ranges are ignored.
func (g *Group) Equal(other *Group) bool {
	return g.compare(other, func(a, b string) bool { return a == b })
}

// Equivalent is Equal modulo the header normalization applied by Regenerate
func (g *Group) Equivalent(other *Group) bool {
	return g.compare(other, func(a, b string) bool {
		return NormalizeName(a) == NormalizeName(b)
	})
}

func (g *Group) compare(other *Group, sameName func(a, b string) bool) bool {
	if g == nil || other == nil {
		return g == other
	}
	if !g.IsRoot() || !other.IsRoot() {
		if !sameName(g.Name, other.Name) {
			return false
		}
	}
	if len(g.Attributes) != len(other.Attributes) || len(g.Children) != len(other.Children) {
		return false
	}
	for i := range g.Attributes {
		if g.Attributes[i].Key != other.Attributes[i].Key || g.Attributes[i].Value != other.Attributes[i].Value {
			return false
		}
	}
	for i := range g.Children {
		if !g.Children[i].compare(other.Children[i], sameName) {
			return false
		}
	}
	return true
}

// NormalizeName returns name as-is when it contains a colon, else upper-cased
func NormalizeName(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return strings.ToUpper(name)
}

// Clone returns a deep copy of g
func (g *Group) Clone() *Group {
	c := *g
	c.Attributes = append(Attributes(nil), g.Attributes...)
	c.Children = make([]*Group, len(g.Children))
	for i, child := range g.Children {
		c.Children[i] = child.Clone()
	}
	return &c
}
