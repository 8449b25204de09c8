// Package error provides structured error handling for cfdkit.
//
// Package: error
// Title: cfdkit Error Handling Framework
// Description: Structured errors with codes, severities, details and stack
//              traces. Every failure of the CCL engine carries a Code so that
//              callers can branch on the taxonomy (ParseAmbiguity,
//              AlreadyExists, NotFound, TypeMismatch, StaleStore,
//              ExternalToolFailure) without matching on message text.
// Author: msto63
// Version: v0.2.0
// Created: 2026-10-02
// Modified: 2026-10-09
//
// Usage:
//
//	import cfderror "github.com/msto63/cfdkit/foundation/core/error"
//
//	err := cfderror.New("node already exists").
//		WithCode(cfderror.CodeAlreadyExists).
//		WithDetail("path", "/FLOW: Flow Analysis 1")
//
//	wrapped := fmt.Errorf("materialize failed: %w", err)
//	if cfderror.HasCode(wrapped, cfderror.CodeAlreadyExists) {
//		// the code survives fmt.Errorf wrapping
//	}
package error
