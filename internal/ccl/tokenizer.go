// ============================================================================
// cfdkit - CFX Case Automation Toolkit
// ============================================================================
//
// Package:     ccl
// Description: Indentation tokenizer producing logical lines
// Author:      Mike Stoffels
// Created:     2026-10-02
// License:     MIT
// ============================================================================

package ccl

import (
	"bufio"
	"errors"
	"io"
	"strings"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// LogicalLine is one semantic line after continuation joining
type LogicalLine struct {
	Text   string // joined text including leading spaces of the first fragment
	Depth  int    // leading spaces of the first physical line
	Source int    // 1-based physical line number of the first fragment
}

// Trimmed returns the text without surrounding whitespace
func (l LogicalLine) Trimmed() string {
	return strings.TrimSpace(l.Text)
}

// tokenized is the tokenizer output including the continuation state at EOF
type tokenized struct {
	lines []LogicalLine
	// unterminated is the source line of a continuation still open at EOF, or 0
	unterminated int
}

// Tokenize converts raw CCL text into logical lines
func Tokenize(r io.Reader) ([]LogicalLine, error) {
	t, err := tokenize(r)
	if err != nil {
		return nil, err
	}
	return t.lines, nil
}

// TokenizeString is Tokenize over a string
func TokenizeString(s string) []LogicalLine {
	t, _ := tokenize(strings.NewReader(s))
	return t.lines
}

func tokenize(r io.Reader) (tokenized, error) {
	var (
		out     tokenized
		br      = bufio.NewReader(r)
		pending *LogicalLine
		lineNo  int
	)

	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return out, cfderror.Wrap(err, "failed to read CCL text").WithCode(cfderror.CodeInvalidInput)
		}
		if raw == "" && err != nil {
			break
		}
		lineNo++

		raw = strings.TrimSuffix(raw, "\n")
		raw = strings.TrimSuffix(raw, "\r")

		trimmed := strings.TrimLeft(raw, " ")
		if strings.TrimSpace(raw) == "" || strings.HasPrefix(trimmed, "#") {
			if err != nil {
				break
			}
			continue
		}

		depth := len(raw) - len(trimmed)
		continued := strings.HasSuffix(raw, "\\")
		if continued {
			raw = strings.TrimSuffix(raw, "\\")
		}

		if pending == nil {
			pending = &LogicalLine{
				Text:   raw,
				Depth:  depth,
				Source: lineNo,
			}
		} else {
			pending.Text += raw
		}

		if !continued {
			out.lines = append(out.lines, *pending)
			pending = nil
		}

		if err != nil {
			break
		}
	}

	if pending != nil {
		out.lines = append(out.lines, *pending)
		out.unterminated = pending.Source
	}
	return out, nil
}
