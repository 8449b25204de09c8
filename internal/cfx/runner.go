package cfx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
	"github.com/msto63/cfdkit/pkg/core/logging"
)

// licenseHint is printed by the CFX tools when no license can be checked out
const licenseHint = "not connect to any license server"

// Command is one invocation of an external tool
type Command struct {
	Name string
	Args []string
	Dir  string
	// LogFile receives stdout and stderr of a detached process
	LogFile string
}

// String renders the command line with arguments quoted where needed
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Name}, c.Args...) {
		if p == "" || strings.ContainsAny(p, " \t\"") {
			p = strconv.Quote(p)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// Result is the outcome of a finished command
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes external commands
type Runner interface {
	// Run starts the command and waits for it
	Run(ctx context.Context, cmd Command) (Result, error)
	// Start launches the command detached and returns its pid
	Start(ctx context.Context, cmd Command) (int, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	Logger *logging.Logger
}

// NewExecRunner creates a runner logging to logger
func NewExecRunner(logger *logging.Logger) *ExecRunner {
	if logger == nil {
		logger = logging.New("cfx")
	}
	return &ExecRunner{Logger: logger}
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	r.Logger.Debug("Running external command", "cmd", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, cfderror.Wrap(err, "failed to run "+c.Name).
				WithCode(cfderror.CodeExternalToolFailure).
				WithDetail("cmd", c.String())
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, checkResult(c, res)
}

// checkResult maps a nonzero exit status to an error
func checkResult(c Command, res Result) error {
	if res.ExitCode == 0 {
		return nil
	}
	if strings.Contains(res.Stdout, licenseHint) || strings.Contains(res.Stderr, licenseHint) {
		return cfderror.Newf(cfderror.CodeLicenseUnavailable, "%s could not check out a license", c.Name).
			WithDetail("cmd", c.String()).
			WithDetail("exit_code", res.ExitCode)
	}
	return cfderror.Newf(cfderror.CodeExternalToolFailure, "%s exited with status %d", c.Name, res.ExitCode).
		WithDetail("cmd", c.String()).
		WithDetail("exit_code", res.ExitCode).
		WithDetail("stderr", strings.TrimSpace(res.Stderr))
}

// Start implements Runner. The process outlives ctx; it is reaped in the
// background.
func (r *ExecRunner) Start(ctx context.Context, c Command) (int, error) {
	r.Logger.Debug("Starting detached command", "cmd", c.String(), "dir", c.Dir)

	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = nil

	var logFd *os.File
	if c.LogFile != "" {
		fd, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return 0, cfderror.Wrap(err, "failed to open log file").WithCode(cfderror.CodeEnvironmentError)
		}
		logFd = fd
		cmd.Stdout = fd
		cmd.Stderr = fd
	}

	if err := cmd.Start(); err != nil {
		if logFd != nil {
			logFd.Close()
		}
		return 0, cfderror.Wrap(err, "failed to start "+c.Name).
			WithCode(cfderror.CodeExternalToolFailure).
			WithDetail("cmd", c.String())
	}

	pid := cmd.Process.Pid
	go func() {
		cmd.Wait()
		if logFd != nil {
			logFd.Close()
		}
	}()
	return pid, nil
}
