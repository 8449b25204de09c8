// File: severity.go
// Title: Error Severity Levels
// Description: Defines severity levels for errors. The logger uses the
//              severity to pick the level an error is reported at.
// Author: msto63
// Version: v0.2.0
// Created: 2026-10-02
// Modified: 2026-10-09
//
// Change History:
// - 2026-10-02 v0.1.0: Initial implementation with severity levels
// - 2026-10-09 v0.2.0: Severity mapping for CCL and external tool codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow marks errors caused by caller input, such as a missing path
	SeverityLow Severity = iota

	// SeverityMedium marks errors that abort one operation
	SeverityMedium

	// SeverityHigh marks errors that leave a conversion or a solver run incomplete
	SeverityHigh

	// SeverityCritical marks errors that make the store unusable
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Level returns the numeric level of the severity (0-3)
func (s Severity) Level() int {
	return int(s)
}

// ShouldAlert returns true if this severity level should be surfaced prominently
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeDatabaseError, CodeInternal:
		return SeverityCritical

	case CodeExternalToolFailure, CodeLicenseUnavailable, CodeEnvironmentError, CodeParseAmbiguity:
		return SeverityHigh

	case CodeStaleStore, CodeTimeout, CodeConfigError, CodeAlreadyExists:
		return SeverityMedium

	case CodeNotFound, CodeInvalidInput, CodeInvalidFormat, CodeInvalidOperation,
		CodeTypeMismatch, CodeNotSteadyState, CodeNotTransient:
		return SeverityLow

	default:
		return SeverityMedium
	}
}
