// ============================================================================
// cfdkit - CFX Case Automation Toolkit
// ============================================================================
//
// Package:     cfx
// Description: Drives the external CFX executables (cfx5pre, cfx5cmds,
//              cfx5solve) through explicit, configured paths
// Author:      Mike Stoffels
// Created:     2026-10-06
// License:     MIT
// ============================================================================

// Package cfx wraps the CFX command line tools. Executable paths come from
// an Installation built once from configuration; nothing is looked up in
// the environment at call time.
package cfx

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/msto63/cfdkit/pkg/core/config"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
	"github.com/msto63/cfdkit/foundation/utils/filex"
)

// Installation holds the paths of one CFX release
type Installation struct {
	Root    string
	Version string // e.g. "24.1"
	Pre     string
	Cmds    string
	Solve   string
}

var versionSegment = regexp.MustCompile(`^v([0-9]{2})([0-9])$`)

// VersionFromPath extracts the release from a "v241"-style path segment
func VersionFromPath(path string) (string, bool) {
	dir := filepath.Clean(path)
	for {
		if m := versionSegment.FindStringSubmatch(filepath.Base(dir)); m != nil {
			return m[1] + "." + m[2], true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// DetectInstallation derives executable paths from an install directory.
// The binaries are looked for in <dir>/CFX/bin, then <dir>/bin, then <dir>.
func DetectInstallation(dir string) (Installation, error) {
	if !filex.IsDir(dir) {
		return Installation{}, cfderror.Newf(cfderror.CodeEnvironmentError, "CFX install directory not found: %s", dir).
			WithDetail("install_dir", dir)
	}

	bin := dir
	for _, candidate := range []string{filepath.Join(dir, "CFX", "bin"), filepath.Join(dir, "bin")} {
		if filex.IsDir(candidate) {
			bin = candidate
			break
		}
	}

	inst := Installation{
		Root:  dir,
		Pre:   filepath.Join(bin, exeName("cfx5pre")),
		Cmds:  filepath.Join(bin, exeName("cfx5cmds")),
		Solve: filepath.Join(bin, exeName("cfx5solve")),
	}
	inst.Version, _ = VersionFromPath(dir)
	return inst, nil
}

// FromConfig builds an Installation from the cfx config section. Explicit
// executable paths and version override what the install dir implies.
func FromConfig(cfg config.CFXConfig) (Installation, error) {
	var inst Installation
	if cfg.InstallDir != "" {
		detected, err := DetectInstallation(cfg.InstallDir)
		if err != nil {
			return Installation{}, err
		}
		inst = detected
	}

	if cfg.Pre != "" {
		inst.Pre = cfg.Pre
	}
	if cfg.Cmds != "" {
		inst.Cmds = cfg.Cmds
	}
	if cfg.Solve != "" {
		inst.Solve = cfg.Solve
	}
	if cfg.Version != "" {
		inst.Version = cfg.Version
	}
	if inst.Version == "" {
		for _, p := range []string{inst.Pre, inst.Cmds, inst.Solve} {
			if v, ok := VersionFromPath(p); ok {
				inst.Version = v
				break
			}
		}
	}

	if inst.Pre == "" && inst.Cmds == "" && inst.Solve == "" {
		return Installation{}, cfderror.New("no CFX installation configured (set cfx.install_dir or the executable paths)").
			WithCode(cfderror.CodeConfigError)
	}
	return inst, nil
}

// Check verifies that the named executable is configured and present
func (i Installation) Check(exe string) (string, error) {
	var path string
	switch exe {
	case "cfx5pre":
		path = i.Pre
	case "cfx5cmds":
		path = i.Cmds
	case "cfx5solve":
		path = i.Solve
	default:
		return "", cfderror.Newf(cfderror.CodeInvalidInput, "unknown CFX executable: %s", exe)
	}
	if path == "" {
		return "", cfderror.Newf(cfderror.CodeConfigError, "%s is not configured", exe)
	}
	if _, err := os.Stat(path); err != nil {
		return "", cfderror.Newf(cfderror.CodeEnvironmentError, "%s not found: %s", exe, path).WithDetail("path", path)
	}
	return path, nil
}
