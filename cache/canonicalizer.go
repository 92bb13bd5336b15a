package cache

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/geoknoesis/rdf-canon/rdf"
)

const keyPrefix = "rdfc"

// Canonicalizer runs rdf.Canonicalize behind a Cache. Entries are keyed by the variant,
// the digest function, the step budget, IRI strictness and the sorted input lines, so
// reordered input hits the same entry while relabeled input does not.
type Canonicalizer struct {
	cache  Cache
	ttl    time.Duration
	logger *log.Logger
}

// NewCanonicalizer wraps c. A nil cache disables caching and a nil logger discards
// records.
func NewCanonicalizer(c Cache, ttl time.Duration, logger *log.Logger) *Canonicalizer {
	if c == nil {
		c = NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Canonicalizer{cache: c, ttl: ttl, logger: logger}
}

// Key returns the cache key for quads under the resolved options. The step budget and
// IRI strictness are part of the key because they decide whether a run succeeds.
func Key(quads []rdf.Quad, opts rdf.CanonOptions) string {
	lines := make([]string, len(quads))
	for i, q := range quads {
		lines[i] = rdf.SerializeQuad(q)
	}
	sort.Strings(lines)
	return hashKey(keyPrefix, string(opts.Algorithm), string(opts.HashAlgorithm),
		opts.MaxTotalSteps, opts.StrictIRIValidation, lines)
}

// Canonicalize returns the canonical N-Quads for quads and whether it came from the
// cache. Cache failures are logged and never fail the request.
func (c *Canonicalizer) Canonicalize(ctx context.Context, quads []rdf.Quad, opts ...rdf.CanonOption) (string, bool, error) {
	resolved, err := rdf.ResolveCanonOptions(opts...)
	if err != nil {
		return "", false, err
	}
	key := Key(quads, resolved)

	data, hit, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("cache get failed", "key", key, "err", err)
	case hit:
		c.logger.Debug("cache hit", "key", key)
		return string(data), true, nil
	}

	result, err := rdf.Canonicalize(ctx, quads, opts...)
	if err != nil {
		return "", false, err
	}
	canonical := result.String()
	if err := c.cache.Set(ctx, key, []byte(canonical), c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "err", err)
	}
	c.logger.Debug("cache miss", "key", key, "steps", result.Steps)
	return canonical, false, nil
}

// Close closes the underlying cache.
func (c *Canonicalizer) Close() error {
	return c.cache.Close()
}
