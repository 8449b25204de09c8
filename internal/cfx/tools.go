package cfx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/msto63/cfdkit/foundation/utils/filex"
	"github.com/msto63/cfdkit/pkg/core/logging"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// ToolsOptions configures Tools
type ToolsOptions struct {
	Runner Runner
	Logger *logging.Logger
	// SessionDir holds session templates overriding the built-in ones
	SessionDir string
	// TempDir receives rendered session files (default os.TempDir())
	TempDir string
}

// Tools runs the CFX workflows on one installation
type Tools struct {
	inst       Installation
	runner     Runner
	log        *logging.Logger
	sessionDir string
	tempDir    string
}

// NewTools creates a Tools instance
func NewTools(inst Installation, opts ToolsOptions) *Tools {
	if opts.Logger == nil {
		opts.Logger = logging.New("cfx")
	}
	if opts.Runner == nil {
		opts.Runner = NewExecRunner(opts.Logger)
	}
	return &Tools{
		inst:       inst,
		runner:     opts.Runner,
		log:        opts.Logger,
		sessionDir: opts.SessionDir,
		tempDir:    opts.TempDir,
	}
}

// Installation returns the installation the tools run on
func (t *Tools) Installation() Installation { return t.inst }

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func requireFile(path, what string) error {
	if !filex.IsFile(path) {
		return cfderror.Newf(cfderror.CodeNotFound, "%s not found: %s", what, path).WithDetail("path", path)
	}
	return nil
}

// GenerateCCL writes the CCL text of a .def, .cfx or .res file next to it
// and returns the text file path. Case and result files are converted to a
// solver input file first.
func (t *Tools) GenerateCCL(ctx context.Context, input string) (string, error) {
	if !filex.HasSuffix(input, ".def", ".cfx", ".res") {
		return "", cfderror.Newf(cfderror.CodeInvalidFormat, "cannot generate CCL from %s", filepath.Base(input)).
			WithDetail("path", input)
	}
	if err := requireFile(input, "CFX file"); err != nil {
		return "", err
	}
	input = absPath(input)

	def := input
	if !filex.HasSuffix(input, ".def") {
		var err error
		if def, err = t.WriteDef(ctx, input, ""); err != nil {
			return "", err
		}
	}

	cmds, err := t.inst.Check("cfx5cmds")
	if err != nil {
		return "", err
	}

	text := filex.ChangeSuffix(input, ".ccl")
	if filex.Exists(text) {
		if err := os.Remove(text); err != nil {
			return "", cfderror.Wrap(err, "failed to remove old CCL file").WithCode(cfderror.CodeEnvironmentError)
		}
	}

	cmd := Command{Name: cmds, Args: []string{"-read", "-def", def, "-text", text}}
	if _, err := t.runner.Run(ctx, cmd); err != nil {
		return "", err
	}
	if !filex.IsFile(text) {
		return "", cfderror.Newf(cfderror.CodeExternalToolFailure, "%s did not write %s", filepath.Base(cmds), text).
			WithDetail("cmd", cmd.String())
	}
	t.log.Debug("CCL generated", "input", input, "ccl", text)
	return text, nil
}

// WriteDef writes the solver input file of a case. An empty def defaults to
// the case path with the .def suffix.
func (t *Tools) WriteDef(ctx context.Context, cfx, def string) (string, error) {
	if err := requireFile(cfx, "CFX case file"); err != nil {
		return "", err
	}
	if def == "" {
		def = filex.ChangeSuffix(cfx, ".def")
	}
	def = absPath(def)

	if _, err := t.playSession(ctx, "cfx2def.pre", map[string]string{
		PlaceholderCFX:     absPath(cfx),
		PlaceholderDef:     def,
		PlaceholderVersion: t.inst.Version,
	}); err != nil {
		return "", err
	}
	if !filex.IsFile(def) {
		return "", cfderror.Newf(cfderror.CodeExternalToolFailure, "solver file was not written: %s", def)
	}
	return def, nil
}

// ImportCCL replaces the setup of a case with a CCL file. An empty ccl
// defaults to the case path with the .ccl suffix. The case file must be
// rewritten by cfx5pre, otherwise the import counts as failed.
func (t *Tools) ImportCCL(ctx context.Context, cfx, ccl string) (string, error) {
	if ccl == "" {
		ccl = filex.ChangeSuffix(cfx, ".ccl")
	}
	if err := requireFile(cfx, "CFX case file"); err != nil {
		return "", err
	}
	if err := requireFile(ccl, "CCL file"); err != nil {
		return "", err
	}

	before, _ := filex.ModTime(cfx)
	t.log.Debug("Importing CCL into case", "ccl", ccl, "cfx", cfx)

	if _, err := t.playSession(ctx, "importccl.pre", map[string]string{
		PlaceholderCFX:     absPath(cfx),
		PlaceholderCCL:     absPath(ccl),
		PlaceholderVersion: t.inst.Version,
	}); err != nil {
		return "", err
	}

	after, _ := filex.ModTime(cfx)
	if !after.After(before) {
		return "", cfderror.Newf(cfderror.CodeExternalToolFailure, "case file was not rewritten by the import: %s", cfx).
			WithDetail("mtime", before.Format(time.RFC3339Nano))
	}
	return cfx, nil
}

// playSession renders a session template and plays it with cfx5pre -batch
func (t *Tools) playSession(ctx context.Context, name string, params map[string]string) (Result, error) {
	pre, err := t.inst.Check("cfx5pre")
	if err != nil {
		return Result{}, err
	}
	template, err := LoadSession(t.sessionDir, name)
	if err != nil {
		return Result{}, err
	}
	text, err := RenderSession(template, params)
	if err != nil {
		return Result{}, cfderror.Wrap(err, "session "+name)
	}
	file, err := writeSession(t.tempDir, text)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(file)

	t.log.Debug("Playing session", "session", name, "file", file)
	return t.runner.Run(ctx, Command{Name: pre, Args: []string{"-batch", file}})
}

// SolveOptions configures a solver run
type SolveOptions struct {
	Def string
	// Ini is an optional initial values file
	Ini     string
	WorkDir string
	// Partitions > 1 runs in local parallel mode
	Partitions int
	// MaxElapsed limits the wall clock time of the run (0 = unlimited)
	MaxElapsed time.Duration
	// Wait blocks until the solver exits; otherwise the run is detached
	Wait bool
	// LogFile receives the output of a detached run
	LogFile string
}

// SolveResult describes a started or finished run
type SolveResult struct {
	PID    int
	Result *Result
}

// SolveCommand builds the cfx5solve command line
func (t *Tools) SolveCommand(opts SolveOptions) (Command, error) {
	if opts.Def == "" {
		return Command{}, cfderror.New("solver run needs a .def file").WithCode(cfderror.CodeInvalidInput)
	}
	if opts.MaxElapsed < 0 {
		return Command{}, cfderror.Newf(cfderror.CodeInvalidInput, "invalid maximum elapsed time: %s", opts.MaxElapsed)
	}
	solve, err := t.inst.Check("cfx5solve")
	if err != nil {
		return Command{}, err
	}

	def := absPath(opts.Def)
	dir := opts.WorkDir
	if dir == "" {
		dir = filepath.Dir(def)
	}

	args := []string{"-def", def}
	if opts.Ini != "" {
		args = append(args, "-ini", absPath(opts.Ini))
	}
	args = append(args, "-chdir", dir)
	if opts.Partitions > 1 {
		args = append(args, "-par-local", "-partition", strconv.Itoa(opts.Partitions), "-batch")
	}
	if opts.MaxElapsed > 0 {
		args = append(args, "-maxet", fmt.Sprintf("%d [s]", int(opts.MaxElapsed.Seconds())))
	}
	return Command{Name: solve, Args: args, Dir: dir, LogFile: opts.LogFile}, nil
}

// Solve runs cfx5solve, waiting for it when opts.Wait is set
func (t *Tools) Solve(ctx context.Context, opts SolveOptions) (SolveResult, error) {
	if err := requireFile(opts.Def, "solver file"); err != nil {
		return SolveResult{}, err
	}
	cmd, err := t.SolveCommand(opts)
	if err != nil {
		return SolveResult{}, err
	}

	if !opts.Wait {
		pid, err := t.runner.Start(ctx, cmd)
		if err != nil {
			return SolveResult{}, err
		}
		t.log.Info("Solver started", "def", opts.Def, "pid", pid)
		return SolveResult{PID: pid}, nil
	}

	res, err := t.runner.Run(ctx, cmd)
	if err != nil {
		return SolveResult{Result: &res}, err
	}
	t.log.Info("Solver finished", "def", opts.Def, "duration", res.Duration)
	return SolveResult{Result: &res}, nil
}

// StopFile is the file a running solver polls for a stop request
const StopFile = "stp"

// RequestStop asks the solver running in dir to stop after the current
// iteration by creating the stp file
func RequestStop(dir string) error {
	if !filex.IsDir(dir) {
		return cfderror.Newf(cfderror.CodeNotFound, "solver run directory not found: %s", dir)
	}
	if err := filex.Touch(filepath.Join(dir, StopFile)); err != nil {
		return cfderror.Wrap(err, "failed to request solver stop").WithCode(cfderror.CodeEnvironmentError)
	}
	return nil
}
