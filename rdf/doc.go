// Package rdf computes canonical forms of RDF datasets.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// Canonicalization relabels every blank node deterministically so that two datasets
// that differ only in blank node labels or statement order produce identical output.
// Two variants are supported:
//   - URDNA2015 (SHA-256): the algorithm standardized as RDFC-1.0.
//   - URGNA2012 (SHA-1): the earlier graph variant; blank graph names are masked.
//
// Entry points:
//   - Canonicalize: quads in, CanonicalResult out (quads, N-Quads text, issued IDs).
//   - CanonicalizeNQuads, CanonicalizeNQuadsReader, CanonicalizeNQuadsWriter: text in, text out.
//   - Isomorphic: compares two datasets by canonical form.
//   - FromLDDataset and ToLDDataset: convert to and from json-gold datasets.
//
// Example:
//
//	out, err := rdf.CanonicalizeNQuads(ctx, input,
//	    rdf.OptAlgorithm(rdf.AlgorithmURDNA2015))
//	if err != nil {
//	    // handle error
//	}
//	fmt.Print(out)
//
// Blank node labels in the output use the "c14n" prefix, numbered in issue order.
//
// The engine never recurses deeper than MaxRecursionDepth steps on one goroutine stack;
// deeper work continues on a fresh goroutine. It yields the processor after each
// TimeSlice and checks ctx at that point, so long runs can be canceled. Highly symmetric
// inputs can take exponential time, so every run is bounded by MaxTotalSteps and fails
// with ErrBudgetExceeded once the bound is passed.
//
// N-Quads input is parsed with ParseNQuads. For untrusted input use
// ParseNQuadsWithOptions to bound line length and quad count.
//
// Errors carry a stable ErrorCode, see Code.
package rdf
