package parser

import (
	"fmt"
	"strings"
)

// Source identifies the input a parse step was working on.
type Source struct {
	Ratio   string
	Element string
	File    string
}

func (s Source) String() string {
	var parts []string
	if s.Ratio != "" {
		parts = append(parts, "ratio "+s.Ratio)
	}
	if s.Element != "" {
		parts = append(parts, "element "+s.Element)
	}
	if s.File != "" {
		parts = append(parts, s.File)
	}
	if len(parts) == 0 {
		return "unknown input"
	}
	return strings.Join(parts, ", ")
}

// DiscoveryError reports an expected input file that is missing or ambiguous.
type DiscoveryError struct {
	Source
	Pattern string
	Matches []string
	Err     error
}

func (e *DiscoveryError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("discovery (%s): %v", e.Source, e.Err)
	case len(e.Matches) == 0:
		return fmt.Sprintf("discovery (%s): no file matches %q", e.Source, e.Pattern)
	default:
		return fmt.Sprintf("discovery (%s): %d files match %q: %s", e.Source, len(e.Matches), e.Pattern, strings.Join(e.Matches, ", "))
	}
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// FormatError reports input whose structure does not match the legacy layout.
// Line is 1-based; zero means the error is not tied to one line.
type FormatError struct {
	Source
	Line int
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	loc := e.Source.String()
	if e.Line > 0 {
		loc = fmt.Sprintf("%s line %d", loc, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("format (%s): %s: %v", loc, e.Msg, e.Err)
	}
	return fmt.Sprintf("format (%s): %s", loc, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

// InconsistencyError reports grids or record counts that disagree with the
// first-parsed reference.
type InconsistencyError struct {
	Source
	Msg string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("inconsistent (%s): %s", e.Source, e.Msg)
}

func formatErr(src Source, line int, err error, format string, args ...any) *FormatError {
	return &FormatError{Source: src, Line: line, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Malformed builds a FormatError for src that is not tied to one line.
func Malformed(src Source, format string, args ...any) *FormatError {
	return formatErr(src, 0, nil, format, args...)
}

// Inconsistent builds an InconsistencyError for src.
func Inconsistent(src Source, format string, args ...any) *InconsistencyError {
	return &InconsistencyError{Source: src, Msg: fmt.Sprintf(format, args...)}
}
