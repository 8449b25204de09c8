// ============================================================================
// cfdkit - CFX Case Automation Toolkit
// ============================================================================
//
// Package:     ccl
// Description: Group tree builder using the indentation gap rule
// Author:      Mike Stoffels
// Created:     2026-10-02
// License:     MIT
// ============================================================================

package ccl

import (
	"fmt"
	"strings"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// DefaultStep is the indentation step between nesting levels
const DefaultStep = 2

// Ambiguity reasons
const (
	ReasonFoldedHeader   = "empty group folded into parent body"
	ReasonDuplicateGroup = "duplicate group name replaces earlier sibling"
	ReasonDuplicateKey   = "duplicate attribute key replaces earlier value"
	ReasonUnterminated   = "text ends inside a line continuation"
	ReasonSentinelHeader = "last header without body kept as empty group"
	ReasonBareLine       = "line is neither attribute nor group header"
)

// BuildOptions configures tree construction
type BuildOptions struct {
	// Step is the indentation added per nesting level (default 2)
	Step int
	// Strict turns the first ambiguity into a CodeParseAmbiguity error
	Strict bool
}

// DefaultBuildOptions returns options with the default step
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Step: DefaultStep}
}

// Ambiguity records a place where the gap rule had to guess
type Ambiguity struct {
	Line   int    // 1-based source line
	Text   string // trimmed line text
	Reason string
}

func (a Ambiguity) String() string {
	return fmt.Sprintf("line %d: %s: %q", a.Line, a.Reason, a.Text)
}

type builder struct {
	lines       []LogicalLine
	step        int
	ambiguities []Ambiguity
}

// Build partitions lines into a group tree rooted at a synthetic "root" group
func Build(lines []LogicalLine, opts BuildOptions) (*Document, error) {
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}

	b := &builder{lines: lines, step: opts.Step}
	root := &Group{
		Name:  RootName,
		Start: -1,
		End:   len(lines),
		Depth: -opts.Step,
	}
	if len(lines) > 0 {
		root.Depth = lines[0].Depth - opts.Step
	}
	b.build(root)

	doc := &Document{
		Root:        root,
		Lines:       lines,
		Ambiguities: b.ambiguities,
		Step:        opts.Step,
	}
	if opts.Strict {
		if err := doc.ambiguityError(); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (b *builder) build(g *Group) {
	target := g.Depth + b.step

	var candidates []int
	for i := g.Start + 1; i < g.End; i++ {
		if b.lines[i].Depth == target {
			candidates = append(candidates, i)
		}
	}

	var headers []int
	for k, at := range candidates {
		text := b.lines[at].Trimmed()

		var header, empty bool
		if k+1 < len(candidates) {
			header = candidates[k+1]-at > 1
		} else if g.End-at > 1 && !isEndMarker(text) && !isKeyValue(text) {
			// the parent's end is the sentinel for the last candidate. It
			// is a header when a deeper body follows, or when it looks like
			// one and the body is empty.
			body := b.lines[at+1].Depth > target
			header = body || looksLikeHeader(text)
			empty = !body
		}

		switch {
		case header && empty:
			headers = append(headers, at)
			b.note(at, ReasonSentinelHeader)
		case header:
			headers = append(headers, at)
		case looksLikeHeader(text):
			b.note(at, ReasonFoldedHeader)
		case !isEndMarker(text) && !isKeyValue(text):
			b.note(at, ReasonBareLine)
		}
	}

	limit := g.End
	if len(headers) > 0 {
		limit = headers[0]
	}
	for i := g.Start + 1; i < limit; i++ {
		line := b.lines[i]
		if line.Depth < target {
			break
		}
		key, value, ok := parseKeyValue(line.Text)
		if !ok {
			break
		}
		if line.Depth > target {
			continue
		}
		if g.Attributes.Has(key) {
			b.note(i, ReasonDuplicateKey)
		}
		g.setParsedAttribute(key, value, i)
	}

	for k, h := range headers {
		end := g.End
		if k+1 < len(headers) {
			end = headers[k+1]
		}
		name := HeaderName(b.lines[h].Text)
		child := &Group{
			Name:  name,
			Type:  TypeTag(name),
			Start: h,
			End:   end,
			Depth: b.lines[h].Depth,
		}
		b.build(child)
		if g.AddChild(child) {
			b.note(h, ReasonDuplicateGroup)
		}
	}
}

func (b *builder) note(line int, reason string) {
	b.ambiguities = append(b.ambiguities, Ambiguity{
		Line:   b.lines[line].Source,
		Text:   b.lines[line].Trimmed(),
		Reason: reason,
	})
}

func (g *Group) setParsedAttribute(key, value string, line int) {
	for i := range g.Attributes {
		if g.Attributes[i].Key == key {
			g.Attributes[i].Value = value
			g.Attributes[i].Line = line
			return
		}
	}
	g.Attributes = append(g.Attributes, Attribute{Key: key, Value: value, Line: line})
}

// parseKeyValue splits on the first "=" and trims both sides
func parseKeyValue(text string) (key, value string, ok bool) {
	i := strings.Index(text, "=")
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(text[:i])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(text[i+1:]), true
}

func isKeyValue(text string) bool {
	_, _, ok := parseKeyValue(text)
	return ok
}

func isEndMarker(text string) bool {
	return text == "END"
}

func looksLikeHeader(text string) bool {
	return strings.HasSuffix(text, ":") && !strings.Contains(text, "=")
}

func (d *Document) ambiguityError() error {
	if len(d.Ambiguities) == 0 {
		return nil
	}
	a := d.Ambiguities[0]
	return cfderror.Newf(cfderror.CodeParseAmbiguity, "ambiguous CCL structure at %s", a).
		WithOperation("ccl.Build").
		WithDetail("line", a.Line).
		WithDetail("reason", a.Reason)
}
