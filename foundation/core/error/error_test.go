// File: error_test.go
// Title: Error Module Tests
// Description: Tests for error creation, wrapping, code lookup through
//              wrapped chains, details and JSON output.
// Author: msto63
// Version: v0.2.0
// Created: 2026-10-02
// Modified: 2026-10-09

package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	msg := "test error message"
	err := New(msg)

	if err == nil {
		t.Fatal("New() returned nil")
	}
	if err.Error() != msg {
		t.Errorf("Error() = %q, want %q", err.Error(), msg)
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeUnknown)
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityMedium)
	}
	if err.Timestamp().IsZero() {
		t.Error("Timestamp() should not be zero")
	}
	if len(err.StackTrace()) == 0 {
		t.Error("StackTrace() should not be empty")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CodeNotFound, "attribute %q not found", "Option")

	if err.Error() != `attribute "Option" not found` {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Code() != CodeNotFound {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeNotFound)
	}
	if err.Severity() != SeverityLow {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityLow)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		message  string
		wantNil  bool
		wantMsg  string
		wantCode Code
	}{
		{
			name:    "wrap nil error",
			err:     nil,
			message: "wrapper message",
			wantNil: true,
		},
		{
			name:     "wrap standard error",
			err:      errors.New("original error"),
			message:  "wrapper message",
			wantMsg:  "wrapper message: original error",
			wantCode: CodeUnknown,
		},
		{
			name:     "wrap coded error",
			err:      New("node exists").WithCode(CodeAlreadyExists),
			message:  "materialize",
			wantMsg:  "materialize: node exists",
			wantCode: CodeAlreadyExists,
		},
		{
			name:     "wrap coded error behind fmt.Errorf",
			err:      fmt.Errorf("outer: %w", New("stale").WithCode(CodeStaleStore)),
			message:  "open",
			wantMsg:  "open: outer: stale",
			wantCode: CodeStaleStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, tt.message)

			if tt.wantNil {
				if wrapped != nil {
					t.Errorf("Wrap() = %v, want nil", wrapped)
				}
				return
			}
			if wrapped == nil {
				t.Fatal("Wrap() returned nil")
			}
			if wrapped.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", wrapped.Error(), tt.wantMsg)
			}
			if wrapped.Code() != tt.wantCode {
				t.Errorf("Code() = %v, want %v", wrapped.Code(), tt.wantCode)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	original := errors.New("root cause")
	middle := Wrap(original, "middle layer")
	top := Wrap(middle, "top layer")

	expected := "top layer: middle layer: root cause"
	if top.Error() != expected {
		t.Errorf("Error() = %q, want %q", top.Error(), expected)
	}
	if !errors.Is(top, original) {
		t.Error("errors.Is(top, original) should be true")
	}
	if top.RootCause() != original {
		t.Errorf("RootCause() = %v, want %v", top.RootCause(), original)
	}
}

func TestWrapTruncatesDeepChains(t *testing.T) {
	var err error = errors.New("root")
	for i := 0; i < MaxErrorChainDepth+5; i++ {
		err = Wrap(err, fmt.Sprintf("layer %d", i))
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("expected *Error")
	}
	if chainDepth(err) > MaxErrorChainDepth+1 {
		t.Errorf("chain depth = %d, want <= %d", chainDepth(err), MaxErrorChainDepth+1)
	}
	if !strings.Contains(err.Error(), "root") {
		t.Errorf("truncated error lost the root message: %q", err.Error())
	}
}

func TestHasCode(t *testing.T) {
	base := New("boom").WithCode(CodeTypeMismatch)

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"direct", base, CodeTypeMismatch, true},
		{"other code", base, CodeNotFound, false},
		{"fmt wrapped", fmt.Errorf("set: %w", base), CodeTypeMismatch, true},
		{"plain error", errors.New("x"), CodeTypeMismatch, false},
		{"nil", nil, CodeTypeMismatch, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCode(tt.err, tt.code); got != tt.want {
				t.Errorf("HasCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCodeAndSeverity(t *testing.T) {
	err := fmt.Errorf("x: %w", New("tool failed").WithCode(CodeExternalToolFailure))

	if got := GetCode(err); got != CodeExternalToolFailure {
		t.Errorf("GetCode() = %v, want %v", got, CodeExternalToolFailure)
	}
	if got := GetSeverity(err); got != SeverityHigh {
		t.Errorf("GetSeverity() = %v, want %v", got, SeverityHigh)
	}
	if got := GetCode(errors.New("plain")); got != CodeUnknown {
		t.Errorf("GetCode(plain) = %v, want %v", got, CodeUnknown)
	}
}

func TestWithSeverityIsKept(t *testing.T) {
	err := New("x").WithSeverity(SeverityCritical).WithCode(CodeNotFound)
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
}

func TestDetails(t *testing.T) {
	err := New("x").
		WithDetail("path", "/FLOW").
		WithDetails(map[string]interface{}{"key": "Option", "line": 3}).
		WithOperation("SetAttribute")

	details := err.Details()
	if details["path"] != "/FLOW" || details["key"] != "Option" || details["line"] != 3 {
		t.Errorf("Details() = %v", details)
	}

	details["path"] = "changed"
	if v, _ := err.Detail("path"); v != "/FLOW" {
		t.Error("Details() must return a copy")
	}
	if err.Operation() != "SetAttribute" {
		t.Errorf("Operation() = %q, want SetAttribute", err.Operation())
	}
}

func TestString(t *testing.T) {
	err := Wrap(errors.New("disk full"), "write store").
		WithCode(CodeDatabaseError).
		WithOperation("Materialize").
		WithDetail("b", 2).
		WithDetail("a", 1)

	s := err.String()
	for _, want := range []string{"Error: write store", "Code: DATABASE_ERROR", "Operation: Materialize", "Details: {a=1, b=2}", "Cause: disk full"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("stale store").WithCode(CodeStaleStore).WithDetail("store", "case.ccldb")

	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("Marshal() error = %v", jerr)
	}

	var decoded map[string]interface{}
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("Unmarshal() error = %v", jerr)
	}
	if decoded["code"] != "STALE_STORE" {
		t.Errorf("code = %v, want STALE_STORE", decoded["code"])
	}
	if decoded["severity"] != "medium" {
		t.Errorf("severity = %v, want medium", decoded["severity"])
	}
	details, _ := decoded["details"].(map[string]interface{})
	if details["store"] != "case.ccldb" {
		t.Errorf("details = %v", decoded["details"])
	}
}
