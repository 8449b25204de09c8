// File: codes.go
// Title: Error Code Definitions
// Description: Defines the error codes used across cfdkit. Codes classify
//              failures of the CCL engine, the persisted store and the
//              external solver tools, and map to CLI exit codes.
// Author: msto63
// Version: v0.2.0
// Created: 2026-10-02
// Modified: 2026-10-09
//
// Change History:
// - 2026-10-02 v0.1.0: Initial code set
// - 2026-10-09 v0.2.0: Added CCL engine taxonomy and exit codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeInvalidOperation Code = "INVALID_OPERATION"
	CodeTimeout          Code = "TIMEOUT"

	// CCL parsing and navigation
	CodeParseAmbiguity Code = "PARSE_AMBIGUITY"
	CodeInvalidFormat  Code = "INVALID_FORMAT"
	CodeTypeMismatch   Code = "TYPE_MISMATCH"
	CodeNotSteadyState Code = "NOT_STEADY_STATE"
	CodeNotTransient   Code = "NOT_TRANSIENT"

	// Store
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeStaleStore    Code = "STALE_STORE"
	CodeDatabaseError Code = "DATABASE_ERROR"

	// External solver tools
	CodeExternalToolFailure Code = "EXTERNAL_TOOL_FAILURE"
	CodeLicenseUnavailable  Code = "LICENSE_UNAVAILABLE"

	// Configuration and environment
	CodeConfigError      Code = "CONFIG_ERROR"
	CodeEnvironmentError Code = "ENVIRONMENT_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeInvalidOperation, CodeTimeout,
		CodeParseAmbiguity, CodeInvalidFormat, CodeTypeMismatch, CodeNotSteadyState, CodeNotTransient,
		CodeAlreadyExists, CodeStaleStore, CodeDatabaseError,
		CodeExternalToolFailure, CodeLicenseUnavailable,
		CodeConfigError, CodeEnvironmentError:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeParseAmbiguity, CodeInvalidFormat:
		return "parse"
	case CodeTypeMismatch, CodeNotSteadyState, CodeNotTransient:
		return "navigation"
	case CodeAlreadyExists, CodeStaleStore, CodeDatabaseError:
		return "store"
	case CodeExternalToolFailure, CodeLicenseUnavailable, CodeTimeout:
		return "external"
	case CodeConfigError, CodeEnvironmentError:
		return "configuration"
	default:
		return "generic"
	}
}

// ExitCode returns the process exit status the CLI uses for this code
func (c Code) ExitCode() int {
	switch c.Category() {
	case "parse":
		return 3
	case "navigation":
		return 4
	case "store":
		return 5
	case "external":
		return 6
	case "configuration":
		return 7
	}
	if c == CodeNotFound || c == CodeInvalidInput || c == CodeInvalidOperation {
		return 2
	}
	return 1
}
