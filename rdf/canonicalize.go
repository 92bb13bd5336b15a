package rdf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"time"
)

// CanonicalResult is the outcome of a canonicalization run.
type CanonicalResult struct {
	// Algorithm is the variant that produced the result.
	Algorithm Algorithm
	// NQuads is the canonical N-Quads text; set when the format is FormatNQuads.
	NQuads string
	// Quads are the canonical quads in output order; set when no format is requested.
	Quads []Quad
	// IssuedIDs maps each input blank node ID to its canonical ID (no "_:" prefix).
	IssuedIDs map[string]string
	// Steps is the number of scheduler steps the run used.
	Steps uint64

	text string
}

// String returns the canonical N-Quads text regardless of the requested format.
func (r *CanonicalResult) String() string { return r.text }

// Hash returns the hex SHA-256 of the canonical N-Quads text.
func (r *CanonicalResult) Hash() string {
	sum := sha256.Sum256([]byte(r.text))
	return hex.EncodeToString(sum[:])
}

// Canonicalize computes the canonical form of quads.
//
// The result depends only on the quads (as a multiset) and the algorithm: relabeling
// blank nodes or reordering the input does not change it. Configuration errors are
// reported before any work starts; a run that exceeds the step budget returns
// ErrBudgetExceeded and no result.
func Canonicalize(ctx context.Context, quads []Quad, opts ...CanonOption) (*CanonicalResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	options, err := buildCanonOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := startCanonicalizeSpan(ctx, options, len(quads))
	start := time.Now()

	sched := newScheduler(ctx, options)
	e := newEngine(sched, options)
	out, lines, err := e.run(quads)
	if err != nil {
		endSpan(span, sched, err)
		options.Logger.Debug("canonicalization failed", "algorithm", options.Algorithm, "steps", sched.steps, "err", err)
		return nil, err
	}

	result := &CanonicalResult{
		Algorithm: options.Algorithm,
		IssuedIDs: e.issuedIDs(),
		Steps:     sched.steps,
		text:      strings.Join(lines, ""),
	}
	if options.Format == FormatNQuads {
		result.NQuads = result.text
	} else {
		result.Quads = out
	}

	endSpan(span, sched, nil)
	options.Logger.Debug("canonicalized dataset",
		"algorithm", options.Algorithm,
		"quads", len(out),
		"blank_nodes", len(e.labels),
		"steps", sched.steps,
		"hops", sched.hops,
		"yields", sched.yields,
		"elapsed", time.Since(start).Round(time.Microsecond))
	return result, nil
}

// CanonicalizeDataset canonicalizes a dataset given as default plus named graphs.
func CanonicalizeDataset(ctx context.Context, ds Dataset, opts ...CanonOption) (*CanonicalResult, error) {
	return Canonicalize(ctx, ds.Quads(), opts...)
}

// CanonicalizeNQuads parses N-Quads text and returns its canonical N-Quads text.
func CanonicalizeNQuads(ctx context.Context, input string, opts ...CanonOption) (string, error) {
	return CanonicalizeNQuadsReader(ctx, strings.NewReader(input), opts...)
}

// CanonicalizeNQuadsReader reads N-Quads from r and returns the canonical text.
// This is a convenience function that reads all data before canonicalizing.
func CanonicalizeNQuadsReader(ctx context.Context, r io.Reader, opts ...CanonOption) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	// options are checked before parsing so configuration errors win over input errors
	if _, err := buildCanonOptions(opts); err != nil {
		return "", err
	}
	quads, err := ParseNQuads(ctx, r)
	if err != nil {
		return "", err
	}
	result, err := Canonicalize(ctx, quads, opts...)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// CanonicalizeNQuadsWriter reads N-Quads from r and writes the canonical text to w.
func CanonicalizeNQuadsWriter(ctx context.Context, w io.Writer, r io.Reader, opts ...CanonOption) error {
	canonical, err := CanonicalizeNQuadsReader(ctx, r, opts...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, canonical)
	return err
}

// Isomorphic reports whether a and b are equal up to blank node relabeling.
func Isomorphic(ctx context.Context, a, b []Quad, opts ...CanonOption) (bool, error) {
	ra, err := Canonicalize(ctx, a, opts...)
	if err != nil {
		return false, err
	}
	rb, err := Canonicalize(ctx, b, opts...)
	if err != nil {
		return false, err
	}
	return ra.String() == rb.String(), nil
}
