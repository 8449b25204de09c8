// ============================================================================
// cfdkit - CFX Case Automation Toolkit
// ============================================================================
//
// Package:     cclnav
// Description: Typed navigation over a CCL store with freshness handling
// Author:      Mike Stoffels
// Created:     2026-10-03
// License:     MIT
// ============================================================================

// Package cclnav offers path-addressed groups, validated attribute access
// and flow, domain and boundary views on top of a cclstore.Store.
package cclnav

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/msto63/cfdkit/internal/ccl"
	"github.com/msto63/cfdkit/internal/cclstore"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
	"github.com/msto63/cfdkit/foundation/utils/filex"
	"github.com/msto63/cfdkit/pkg/core/logging"
	"github.com/msto63/cfdkit/pkg/core/version"
)

// Generator produces CCL text from a solver input file and returns the
// path of the text file
type Generator interface {
	GenerateCCL(ctx context.Context, input string) (string, error)
}

// Suffixes of solver inputs that need a Generator
var binarySuffixes = []string{".def", ".cfx", ".res"}

// Options configures Open
type Options struct {
	// Generator regenerates text from binary inputs; nil disables regeneration
	Generator Generator
	// Step is the indentation step for parsing and regeneration (default 2)
	Step int
	// StoreSuffix is the store file suffix (default .ccldb)
	StoreSuffix string
	// SourcePath overrides the file the store is checked against
	SourcePath string
	// Strict aborts parsing on the first ambiguity
	Strict bool
	Logger *logging.Logger
}

// File is an open store plus the source it was derived from
type File struct {
	mu     sync.RWMutex
	store  *cclstore.Store
	path   string
	source string
	opts   Options
	log    *logging.Logger

	regenerations int
}

// Open opens path, dispatching on its suffix. A store file is checked
// against its source and rebuilt when stale and a Generator is configured.
// A .ccl file is parsed into its sibling store. .def, .cfx and .res files
// are converted to text through the Generator first.
func Open(ctx context.Context, path string, opts Options) (*File, error) {
	if opts.Step <= 0 {
		opts.Step = ccl.DefaultStep
	}
	if opts.StoreSuffix == "" {
		opts.StoreSuffix = cclstore.DefaultSuffix
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("cclnav")
	}

	f := &File{opts: opts, log: opts.Logger}

	switch {
	case filex.HasSuffix(path, opts.StoreSuffix):
		f.path = path
		f.source = opts.SourcePath
		if f.source == "" {
			f.source = filex.ChangeSuffix(path, ".cfx")
		}
		if err := cclstore.CheckFresh(f.path, f.source); err != nil {
			if !cfderror.HasCode(err, cfderror.CodeStaleStore) || !f.canRebuild() {
				return nil, err
			}
			f.log.Info("Store is stale, regenerating", "store", f.path, "source", f.source)
			if err := f.rebuild(ctx); err != nil {
				return nil, err
			}
		}

	case filex.HasSuffix(path, ".ccl"):
		f.path = filex.ChangeSuffix(path, opts.StoreSuffix)
		f.source = opts.SourcePath
		if f.source == "" {
			f.source = path
		}
		if err := f.buildFromText(ctx, path); err != nil {
			return nil, err
		}

	case filex.HasSuffix(path, binarySuffixes...):
		if opts.Generator == nil {
			return nil, cfderror.Newf(cfderror.CodeInvalidOperation, "opening %s requires a CCL generator", filepath.Base(path))
		}
		f.path = filex.ChangeSuffix(path, opts.StoreSuffix)
		f.source = path
		if err := f.rebuild(ctx); err != nil {
			return nil, err
		}

	default:
		return nil, cfderror.Newf(cfderror.CodeInvalidFormat, "unsupported file type: %s", path).WithDetail("path", path)
	}

	st, err := f.openStore(ctx)
	if err != nil {
		return nil, err
	}
	f.store = st
	return f, nil
}

// openStore opens the store file. A store written in another format is
// rebuilt from its source when possible.
func (f *File) openStore(ctx context.Context) (*cclstore.Store, error) {
	st, err := cclstore.Open(cclstore.Config{Path: f.path, Logger: f.log})
	if err != nil {
		return nil, err
	}
	format, _, err := st.Meta(ctx, cclstore.MetaFormatVersion)
	if err != nil {
		st.Close()
		return nil, err
	}
	if format == strconv.Itoa(version.StoreFormat) {
		return st, nil
	}
	st.Close()

	if !f.canRebuild() {
		return nil, cfderror.Newf(cfderror.CodeStaleStore, "store %s has format %s, want %d", f.path, format, version.StoreFormat).
			WithDetail("format", format)
	}
	f.log.Info("Store format changed, regenerating", "store", f.path, "format", format)
	if err := f.rebuild(ctx); err != nil {
		return nil, err
	}
	return cclstore.Open(cclstore.Config{Path: f.path, Logger: f.log})
}

// Close closes the underlying store
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store == nil {
		return nil
	}
	err := f.store.Close()
	f.store = nil
	return err
}

// Path returns the store file path
func (f *File) Path() string { return f.path }

// Source returns the file the store is checked against
func (f *File) Source() string { return f.source }

// Step returns the indentation step used for text output
func (f *File) Step() int { return f.opts.Step }

// Regenerations returns how often the store was rebuilt from its source
func (f *File) Regenerations() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.regenerations
}

// Store returns the current store handle
func (f *File) Store() *cclstore.Store {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.store
}

// EnsureFresh re-checks the store against its source. A stale store is
// rebuilt when possible, otherwise the CodeStaleStore error is returned.
func (f *File) EnsureFresh(ctx context.Context) error {
	err := cclstore.CheckFresh(f.path, f.source)
	if err == nil || !cfderror.HasCode(err, cfderror.CodeStaleStore) || !f.canRebuild() {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.log.Info("Store is stale, regenerating", "store", f.path, "source", f.source)
	if f.store != nil {
		f.store.Close()
		f.store = nil
	}
	if err := f.rebuild(ctx); err != nil {
		return err
	}
	st, err := f.openStore(ctx)
	if err != nil {
		return err
	}
	f.store = st
	return nil
}

func (f *File) canRebuild() bool {
	return f.opts.Generator != nil || filex.HasSuffix(f.source, ".ccl")
}

// rebuild regenerates the store from its source. The caller holds mu or
// has not published f yet.
func (f *File) rebuild(ctx context.Context) error {
	text := f.source
	if !filex.HasSuffix(text, ".ccl") {
		if f.opts.Generator == nil {
			return cfderror.Newf(cfderror.CodeStaleStore, "store %s is stale and no generator is configured", f.path)
		}
		generated, err := f.opts.Generator.GenerateCCL(ctx, f.source)
		if err != nil {
			return err
		}
		text = generated
	}
	if err := f.buildFromText(ctx, text); err != nil {
		return err
	}
	f.regenerations++
	return nil
}

func (f *File) buildFromText(ctx context.Context, textPath string) error {
	doc, err := ccl.ParseFile(textPath, ccl.BuildOptions{Step: f.opts.Step, Strict: f.opts.Strict})
	if err != nil {
		return err
	}
	for _, a := range doc.Ambiguities {
		f.log.Warn("Ambiguous CCL structure", "file", textPath, "line", a.Line, "reason", a.Reason, "text", a.Text)
	}

	result, err := cclstore.Build(ctx, doc, f.path, cclstore.BuildOptions{Step: f.opts.Step, Source: f.source, Logger: f.log})
	if err != nil {
		return err
	}
	f.log.Debug("Store built", "store", f.path, "nodes", result.Nodes, "attributes", result.Attributes)
	return nil
}

// Root returns the root group
func (f *File) Root() Group {
	return Group{file: f}
}

// Get returns the group at an absolute path
func (f *File) Get(ctx context.Context, path string) (Group, error) {
	return f.Root().Get(ctx, path)
}

// Regenerate writes the whole store as CCL text
func (f *File) Regenerate(ctx context.Context, w io.Writer) error {
	return f.Store().Regenerate(ctx, w, "", f.opts.Step)
}

// WriteText regenerates the store into a text file
func (f *File) WriteText(ctx context.Context, textPath string) error {
	return f.Store().WriteText(ctx, textPath, f.opts.Step)
}

// Flow returns the first top-level FLOW group
func (f *File) Flow(ctx context.Context) (Flow, error) {
	children, err := f.Root().Children(ctx)
	if err != nil {
		return Flow{}, err
	}
	for _, c := range children {
		if strings.EqualFold(c.Type(), "FLOW") {
			return Flow{Group: c}, nil
		}
	}
	return Flow{}, cfderror.New("no FLOW group in store").WithCode(cfderror.CodeNotFound)
}
