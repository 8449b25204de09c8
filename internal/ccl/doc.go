// ============================================================================
// cfdkit - CFX Case Automation Toolkit
// ============================================================================
//
// Package:     ccl
// Description: CCL tokenizer, group tree builder and text regenerator
// Author:      Mike Stoffels
// Created:     2026-10-02
// License:     MIT
// ============================================================================

// Package ccl reads CFX Command Language text into a tree of groups and
// writes a tree back out as canonical text.
//
// Parsing is two-staged. Tokenize turns raw text into logical lines with an
// indentation depth, joining backslash continuations and dropping comments
// and blank lines. Build then partitions the lines into groups by depth.
// A line at the child depth opens a new group only when the next line at
// the same depth is not directly adjacent to it:
//
//	FLOW: Flow Analysis 1        <- header (next depth-2 line is 2 lines away)
//	  ANALYSIS TYPE:             <- header
//	    Option = Steady State    <- attribute of ANALYSIS TYPE
//	  END
//	END
//
// Two adjacent lines at the same depth are folded into the parent's body.
// This gap rule is a heuristic. A header-looking line that gets folded is
// recorded as an Ambiguity on the Document; with BuildOptions.Strict the
// first ambiguity aborts the parse.
//
// Regenerate emits a group as header, indented "key = value" lines,
// children and a closing END, which parses back into an equivalent tree.
package ccl
