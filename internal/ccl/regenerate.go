package ccl

import (
	"bufio"
	"io"
	"strings"
)

// HeaderLine returns the header text written for a group name
func HeaderLine(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return strings.ToUpper(name) + ":"
}

// Regenerate writes g as canonical CCL text at the given nesting depth
func Regenerate(w io.Writer, g *Group, depth, step int) error {
	if step <= 0 {
		step = DefaultStep
	}
	bw := bufio.NewWriter(w)
	regenerate(bw, g, depth, step)
	return bw.Flush()
}

// RegenerateDocument writes a root group: its attributes and children at
// depth 0 without a header or END line for the root itself
func RegenerateDocument(w io.Writer, root *Group, step int) error {
	if step <= 0 {
		step = DefaultStep
	}
	bw := bufio.NewWriter(w)
	for _, attr := range root.Attributes {
		writeAttribute(bw, attr, 0)
	}
	for _, c := range root.Children {
		regenerate(bw, c, 0, step)
	}
	return bw.Flush()
}

// String returns the canonical text of the document tree
func (d *Document) String() string {
	var sb strings.Builder
	RegenerateDocument(&sb, d.Root, d.Step)
	return sb.String()
}

func regenerate(w *bufio.Writer, g *Group, depth, step int) {
	indent := strings.Repeat(" ", depth*step)

	w.WriteString(indent)
	w.WriteString(HeaderLine(g.Name))
	w.WriteByte('\n')

	for _, attr := range g.Attributes {
		writeAttribute(w, attr, (depth+1)*step)
	}
	for _, c := range g.Children {
		regenerate(w, c, depth+1, step)
	}

	w.WriteString(indent)
	w.WriteString("END\n")
}

func writeAttribute(w *bufio.Writer, attr Attribute, spaces int) {
	w.WriteString(strings.Repeat(" ", spaces))
	w.WriteString(attr.Key)
	w.WriteString(" = ")
	w.WriteString(attr.Value)
	w.WriteByte('\n')
}
