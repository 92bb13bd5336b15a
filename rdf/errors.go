package rdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeUnknownAlgorithm indicates an unsupported canonicalization algorithm.
	ErrCodeUnknownAlgorithm ErrorCode = "UNKNOWN_ALGORITHM"
	// ErrCodeUnknownOutputFormat indicates an unsupported output format.
	ErrCodeUnknownOutputFormat ErrorCode = "UNKNOWN_OUTPUT_FORMAT"
	// ErrCodeUnknownHashAlgorithm indicates an unsupported digest function.
	ErrCodeUnknownHashAlgorithm ErrorCode = "UNKNOWN_HASH_ALGORITHM"
	// ErrCodeBudgetExceeded indicates the step ceiling was reached.
	ErrCodeBudgetExceeded ErrorCode = "BUDGET_EXCEEDED"
	// ErrCodeMalformedInput indicates a quad that violates the term/quad invariants.
	ErrCodeMalformedInput ErrorCode = "MALFORMED_INPUT"
	// ErrCodeLineTooLong indicates an input line exceeded the configured limit.
	ErrCodeLineTooLong ErrorCode = "LINE_TOO_LONG"
	// ErrCodeQuadLimitExceeded indicates the input held more quads than allowed.
	ErrCodeQuadLimitExceeded ErrorCode = "QUAD_LIMIT_EXCEEDED"
	// ErrCodeParseError indicates an N-Quads syntax error.
	ErrCodeParseError ErrorCode = "PARSE_ERROR"
	// ErrCodeContextCanceled indicates the context was canceled or timed out.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeInternal is used for errors that match no other code.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var (
	// ErrUnknownAlgorithm indicates an unsupported canonicalization algorithm.
	ErrUnknownAlgorithm = errors.New("rdf: unknown canonicalization algorithm")
	// ErrUnknownOutputFormat indicates an unsupported output format.
	ErrUnknownOutputFormat = errors.New("rdf: unknown output format")
	// ErrUnknownHashAlgorithm indicates an unsupported digest function.
	ErrUnknownHashAlgorithm = errors.New("rdf: unknown hash algorithm")
	// ErrBudgetExceeded indicates the configured maximum number of steps was exceeded.
	ErrBudgetExceeded = errors.New("rdf: canonicalization step budget exceeded")
	// ErrMalformedInput indicates a quad that violates the term/quad invariants.
	ErrMalformedInput = errors.New("rdf: malformed input")
	// ErrLineTooLong indicates an input line exceeded the configured limit.
	ErrLineTooLong = errors.New("rdf: line exceeds configured limit")
	// ErrQuadLimitExceeded indicates the input held more quads than allowed.
	ErrQuadLimitExceeded = errors.New("rdf: quad limit exceeded")
)

// Code returns the error code for an error.
// Returns empty string for nil errors or io.EOF (which is not an error condition).
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}

	// EOF is not an error condition
	if err == io.EOF {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnknownAlgorithm):
		return ErrCodeUnknownAlgorithm
	case errors.Is(err, ErrUnknownOutputFormat):
		return ErrCodeUnknownOutputFormat
	case errors.Is(err, ErrUnknownHashAlgorithm):
		return ErrCodeUnknownHashAlgorithm
	case errors.Is(err, ErrBudgetExceeded):
		return ErrCodeBudgetExceeded
	case errors.Is(err, ErrMalformedInput):
		return ErrCodeMalformedInput
	case errors.Is(err, ErrLineTooLong):
		return ErrCodeLineTooLong
	case errors.Is(err, ErrQuadLimitExceeded):
		return ErrCodeQuadLimitExceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeContextCanceled
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return ErrCodeParseError
	}
	return ErrCodeInternal
}

// CanonError adds the failing phase, and the blank node being processed if any,
// to an error raised during canonicalization.
type CanonError struct {
	Op    string // phase, e.g. "index", "hash-first-degree", "hash-n-degree"
	Label string // blank node label, "" if not applicable
	Err   error
}

func (e *CanonError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("canonicalize %s (%s): %v", e.Op, e.Label, e.Err)
	}
	return fmt.Sprintf("canonicalize %s: %v", e.Op, e.Err)
}

func (e *CanonError) Unwrap() error { return e.Err }

func wrapCanonError(op, label string, err error) error {
	if err == nil {
		return nil
	}
	var canonErr *CanonError
	if errors.As(err, &canonErr) {
		return err
	}
	return &CanonError{Op: op, Label: label, Err: err}
}

// ParseError provides structured context for N-Quads parse failures.
type ParseError struct {
	Format    string // Format name, "nquads"
	Statement string // Offending statement or input excerpt
	Line      int    // 1-based line number (0 if unknown)
	Column    int    // 1-based column number (0 if unknown)
	Err       error  // Underlying error
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Format)
	if e.Line > 0 {
		if e.Column > 0 {
			fmt.Fprintf(&msg, ":%d:%d", e.Line, e.Column)
		} else {
			fmt.Fprintf(&msg, ":%d", e.Line)
		}
	}
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())

	if excerpt := e.formatExcerpt(); excerpt != "" {
		msg.WriteString("\n  ")
		msg.WriteString(excerpt)
	}
	return msg.String()
}

// formatExcerpt formats a readable excerpt of the statement around the error position.
func (e *ParseError) formatExcerpt() string {
	if e.Statement == "" {
		return ""
	}

	const maxExcerptLen = 80
	const contextLen = 40

	if e.Column > 0 {
		start := e.Column - 1
		excerptStart := max(start-contextLen, 0)
		excerptEnd := min(start+contextLen, len(e.Statement))
		if excerptStart > excerptEnd {
			excerptStart = excerptEnd
		}

		excerpt := e.Statement[excerptStart:excerptEnd]
		caretPos := start - excerptStart
		if excerptStart > 0 {
			excerpt = "..." + excerpt
			caretPos += 3
		}
		if excerptEnd < len(e.Statement) {
			excerpt += "..."
		}
		caretPos = max(min(caretPos, len(excerpt)-1), 0)

		return excerpt + "\n  " + strings.Repeat(" ", caretPos) + "^"
	}

	if len(e.Statement) > maxExcerptLen {
		return e.Statement[:maxExcerptLen] + "..."
	}
	return e.Statement
}

func (e *ParseError) Unwrap() error { return e.Err }
