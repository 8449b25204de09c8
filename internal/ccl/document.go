package ccl

import (
	"io"
	"os"
	"strings"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// Document is a parsed CCL text
type Document struct {
	Root        *Group
	Lines       []LogicalLine
	Ambiguities []Ambiguity
	Step        int
	// Source is the file the document was read from, if any
	Source string
}

// Parse tokenizes and builds r
func Parse(r io.Reader, opts BuildOptions) (*Document, error) {
	t, err := tokenize(r)
	if err != nil {
		return nil, err
	}

	// the continuation check runs after Build so strict mode reports
	// structural ambiguities first
	doc, err := Build(t.lines, BuildOptions{Step: opts.Step})
	if err != nil {
		return nil, err
	}
	if t.unterminated > 0 {
		last := t.lines[len(t.lines)-1]
		doc.Ambiguities = append(doc.Ambiguities, Ambiguity{
			Line:   t.unterminated,
			Text:   last.Trimmed(),
			Reason: ReasonUnterminated,
		})
	}
	if opts.Strict {
		if err := doc.ambiguityError(); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// ParseString parses CCL text held in memory
func ParseString(s string, opts BuildOptions) (*Document, error) {
	return Parse(strings.NewReader(s), opts)
}

// ParseFile parses the CCL file at path
func ParseFile(path string, opts BuildOptions) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cfderror.Newf(cfderror.CodeNotFound, "CCL file not found: %s", path)
		}
		return nil, cfderror.Wrap(err, "failed to open CCL file").WithCode(cfderror.CodeInvalidInput).WithDetail("path", path)
	}
	defer f.Close()

	doc, err := Parse(f, opts)
	if err != nil {
		return nil, err
	}
	doc.Source = path
	return doc, nil
}

// Flow returns the first top-level FLOW group, or nil
func (d *Document) Flow() *Group {
	for _, c := range d.Root.Children {
		if c.Type == "FLOW" {
			return c
		}
	}
	return nil
}

// Lookup resolves a "/"-separated path from the root
func (d *Document) Lookup(path string) *Group {
	return d.Root.Lookup(path)
}

// AnalysisType classifies a flow analysis
type AnalysisType int

const (
	AnalysisUnknown AnalysisType = iota
	AnalysisSteadyState
	AnalysisTransient
)

func (a AnalysisType) String() string {
	switch a {
	case AnalysisSteadyState:
		return "Steady State"
	case AnalysisTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// AnalysisTypeGroup is the name of the group holding the analysis option
const AnalysisTypeGroup = "ANALYSIS TYPE"

// ClassifyAnalysis inspects the ANALYSIS TYPE group of a flow group (or the
// ANALYSIS TYPE group itself). The Option attribute, or the first attribute
// when Option is absent, decides.
func ClassifyAnalysis(g *Group) AnalysisType {
	if g == nil {
		return AnalysisUnknown
	}
	at := g
	if !strings.EqualFold(g.Name, AnalysisTypeGroup) {
		at = g.Child(AnalysisTypeGroup)
	}
	if at == nil || len(at.Attributes) == 0 {
		return AnalysisUnknown
	}
	option, ok := at.Attributes.Get("Option")
	if !ok {
		option = at.Attributes[0].Value
	}
	return ClassifyOption(option)
}

// ClassifyOption maps an analysis Option value to its type
func ClassifyOption(option string) AnalysisType {
	if strings.Contains(option, "Steady State") {
		return AnalysisSteadyState
	}
	return AnalysisTransient
}
