package rdf

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Algorithm selects the canonicalization variant.
type Algorithm string

const (
	// AlgorithmURDNA2015 is the 2015 variant: SHA-256, graph names take part in
	// relation hashing.
	AlgorithmURDNA2015 Algorithm = "URDNA2015"
	// AlgorithmURGNA2012 is the 2012 variant: SHA-1, graph-name blank nodes are masked
	// with a fixed placeholder and ignored in relation hashing.
	AlgorithmURGNA2012 Algorithm = "URGNA2012"
)

// ParseAlgorithm resolves an algorithm name. Matching is exact.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case AlgorithmURDNA2015, AlgorithmURGNA2012:
		return Algorithm(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// HashAlgorithm returns the digest function the variant mandates.
func (a Algorithm) HashAlgorithm() HashAlgorithm {
	if a == AlgorithmURGNA2012 {
		return HashSHA1
	}
	return HashSHA256
}

// FormatNQuads is the only supported textual output format.
const FormatNQuads = "application/n-quads"

const (
	// DefaultMaxRecursionDepth is the number of nested steps run on one stack.
	DefaultMaxRecursionDepth = 500
	// DefaultMaxTotalSteps is the default global step ceiling.
	DefaultMaxTotalSteps = 1<<32 - 1
	// DefaultTimeSlice is how long the engine runs before yielding.
	DefaultTimeSlice = 10 * time.Millisecond
)

// CanonOption configures canonicalization.
type CanonOption func(*CanonOptions)

// CanonOptions configures the canonicalization engine.
// Zero values use defaults.
type CanonOptions struct {
	// Algorithm is the canonicalization variant. Defaults to URDNA2015.
	Algorithm Algorithm
	// Format is "" for structured quads or FormatNQuads for text.
	Format string
	// MaxRecursionDepth is the number of nested steps before the engine moves to a
	// fresh stack.
	MaxRecursionDepth int
	// MaxTotalSteps aborts the run with ErrBudgetExceeded when exceeded.
	MaxTotalSteps uint64
	// TimeSlice is the run time after which the engine yields the processor.
	TimeSlice time.Duration
	// HashAlgorithm overrides the digest mandated by Algorithm.
	HashAlgorithm HashAlgorithm
	// StrictIRIValidation rejects quads with IRIs that fail ValidateIRI.
	StrictIRIValidation bool
	// Logger receives debug records. Defaults to a discarding logger.
	Logger *log.Logger
}

// DefaultCanonOptions returns the defaults used when no option is given.
func DefaultCanonOptions() CanonOptions {
	return CanonOptions{
		Algorithm:         AlgorithmURDNA2015,
		MaxRecursionDepth: DefaultMaxRecursionDepth,
		MaxTotalSteps:     DefaultMaxTotalSteps,
		TimeSlice:         DefaultTimeSlice,
	}
}

// OptAlgorithm selects the canonicalization variant.
func OptAlgorithm(alg Algorithm) CanonOption {
	return func(opts *CanonOptions) {
		opts.Algorithm = alg
	}
}

// OptFormat selects the output format. Use FormatNQuads for text output.
func OptFormat(format string) CanonOption {
	return func(opts *CanonOptions) {
		opts.Format = format
	}
}

// OptMaxRecursionDepth sets the number of nested steps run on one stack.
func OptMaxRecursionDepth(depth int) CanonOption {
	return func(opts *CanonOptions) {
		opts.MaxRecursionDepth = depth
	}
}

// OptMaxTotalSteps sets the global step ceiling.
func OptMaxTotalSteps(steps uint64) CanonOption {
	return func(opts *CanonOptions) {
		opts.MaxTotalSteps = steps
	}
}

// OptTimeSlice sets how long the engine runs before yielding.
func OptTimeSlice(d time.Duration) CanonOption {
	return func(opts *CanonOptions) {
		opts.TimeSlice = d
	}
}

// OptHashAlgorithm overrides the variant's digest function. The output is then no
// longer comparable with other implementations of the variant.
func OptHashAlgorithm(alg HashAlgorithm) CanonOption {
	return func(opts *CanonOptions) {
		opts.HashAlgorithm = alg
	}
}

// OptStrictIRIValidation rejects quads containing IRIs that fail ValidateIRI.
func OptStrictIRIValidation() CanonOption {
	return func(opts *CanonOptions) {
		opts.StrictIRIValidation = true
	}
}

// OptLogger sets the logger used for debug records.
func OptLogger(l *log.Logger) CanonOption {
	return func(opts *CanonOptions) {
		opts.Logger = l
	}
}

// ResolveCanonOptions applies opts over the defaults and validates the result, exactly
// as Canonicalize does before starting.
func ResolveCanonOptions(opts ...CanonOption) (CanonOptions, error) {
	return buildCanonOptions(opts)
}

func buildCanonOptions(opts []CanonOption) (CanonOptions, error) {
	options := DefaultCanonOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options = normalizeCanonOptions(options)
	if err := options.validate(); err != nil {
		return CanonOptions{}, err
	}
	return options, nil
}

func normalizeCanonOptions(opts CanonOptions) CanonOptions {
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmURDNA2015
	}
	if opts.MaxRecursionDepth <= 0 {
		opts.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	if opts.MaxTotalSteps == 0 {
		opts.MaxTotalSteps = DefaultMaxTotalSteps
	}
	if opts.TimeSlice <= 0 {
		opts.TimeSlice = DefaultTimeSlice
	}
	if opts.HashAlgorithm == "" {
		opts.HashAlgorithm = opts.Algorithm.HashAlgorithm()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

func (o CanonOptions) validate() error {
	if _, err := ParseAlgorithm(string(o.Algorithm)); err != nil {
		return err
	}
	switch o.Format {
	case "", FormatNQuads:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutputFormat, o.Format)
	}
	if o.HashAlgorithm.Size() == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownHashAlgorithm, string(o.HashAlgorithm))
	}
	return nil
}
