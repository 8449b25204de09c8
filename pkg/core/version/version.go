// ============================================================================
// cfdkit - CFX Case Automation Toolkit
// ============================================================================
//
// Package:     version
// Description: Central version management for the toolkit and its store format
// Author:      Mike Stoffels
// Created:     2026-10-02
// License:     MIT
// ============================================================================

package version

// Version constants for cfdkit
const (
	// Toolkit version
	Platform = "0.3.0"

	// Component versions
	CCL      = "0.3.0"
	CCLStore = "0.3.0"
	CCLNav   = "0.2.0"
	CFX      = "0.2.0"

	// StoreFormat is written into every store file; stores with a different
	// format are rebuilt from their source instead of opened
	StoreFormat = 1
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "ccl":
		return CCL
	case "cclstore":
		return CCLStore
	case "cclnav":
		return CCLNav
	case "cfx":
		return CFX
	default:
		return Platform
	}
}
