package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, verbose = "", false
	convertOut, regenOut, exportFormat = "", "", "yaml"
	setCreate, setDelete = false, false
	mergeParent, mergeOverwrite, mergeSkip, mergeBackup = "", false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func sampleCase(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "internal", "ccl", "testdata", "steady.ccl"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "steady.ccl")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestConvertSetShow(t *testing.T) {
	ccl := sampleCase(t)
	store := strings.TrimSuffix(ccl, ".ccl") + ".ccldb"

	out, err := run(t, "convert", ccl)
	if err != nil {
		t.Fatalf("convert error = %v", err)
	}
	if !strings.Contains(out, "nodes:") {
		t.Errorf("convert output = %q, want statistics", out)
	}

	domain := "FLOW: Flow Analysis 1/DOMAIN: Default Domain"
	if _, err := run(t, "set", store, domain, "Location", "B2"); err != nil {
		t.Fatalf("set error = %v", err)
	}
	out, err = run(t, "show", store, domain)
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(out, "Location = B2") {
		t.Errorf("show output = %q, want updated Location", out)
	}
}

func TestSet_ShapeMismatch(t *testing.T) {
	ccl := sampleCase(t)
	if _, err := run(t, "convert", ccl); err != nil {
		t.Fatalf("convert error = %v", err)
	}
	store := strings.TrimSuffix(ccl, ".ccl") + ".ccldb"

	_, err := run(t, "set", store, "FLOW: Flow Analysis 1/SOLUTION UNITS", "Length Units", "12")
	if !cfderror.HasCode(err, cfderror.CodeTypeMismatch) {
		t.Errorf("set error = %v, want TYPE_MISMATCH", err)
	}
}

func TestExport_JSON(t *testing.T) {
	ccl := sampleCase(t)
	out, err := run(t, "export", "-f", "json", ccl, "LIBRARY")
	if err != nil {
		t.Fatalf("export error = %v", err)
	}

	var v map[string]map[string]map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("export output is not JSON: %v\n%s", err, out)
	}
	if got := v["LIBRARY"]["MATERIAL: Water"]["Option"]; got != "Pure Substance" {
		t.Errorf("Option = %q, want Pure Substance", got)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	ccl := sampleCase(t)
	_, err := run(t, "export", "-f", "xml", ccl)
	if !cfderror.HasCode(err, cfderror.CodeInvalidInput) {
		t.Errorf("export error = %v, want INVALID_INPUT", err)
	}
}

func TestRegen(t *testing.T) {
	ccl := sampleCase(t)
	out := filepath.Join(filepath.Dir(ccl), "out.ccl")
	if _, err := run(t, "regen", ccl, "-o", out); err != nil {
		t.Fatalf("regen error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "LIBRARY:\n") {
		t.Errorf("regenerated text starts with %q", strings.SplitN(string(data), "\n", 2)[0])
	}
}

func TestMerge(t *testing.T) {
	ccl := sampleCase(t)
	if _, err := run(t, "convert", ccl); err != nil {
		t.Fatalf("convert error = %v", err)
	}
	store := strings.TrimSuffix(ccl, ".ccl") + ".ccldb"

	extra := filepath.Join(filepath.Dir(ccl), "extra.ccl")
	text := "EXPRESSIONS:\n  tin = 300 [K]\nEND\n"
	if err := os.WriteFile(extra, []byte(text), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := run(t, "merge", store, extra, "--parent", "FLOW: Flow Analysis 1"); err != nil {
		t.Fatalf("merge error = %v", err)
	}
	out, err := run(t, "show", store, "FLOW: Flow Analysis 1/EXPRESSIONS")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(out, "tin = 300 [K]") {
		t.Errorf("show output = %q, want merged expression", out)
	}

	_, err = run(t, "merge", store, extra, "--parent", "FLOW: Flow Analysis 1")
	if !cfderror.HasCode(err, cfderror.CodeAlreadyExists) {
		t.Errorf("second merge error = %v, want ALREADY_EXISTS", err)
	}
	if _, err := run(t, "merge", store, extra, "--parent", "FLOW: Flow Analysis 1", "--overwrite", "--backup"); err != nil {
		t.Errorf("merge --overwrite error = %v", err)
	}
}
