package rdf

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateIRI performs a lightweight RFC 3987 check: the IRI must parse, a scheme, when
// present, must start with a letter, and raw control characters or angle brackets are
// rejected. Relative references are accepted except network-path ones ("//host").
func ValidateIRI(iri string) error {
	if iri == "" {
		return fmt.Errorf("empty IRI")
	}
	parsed, err := url.Parse(iri)
	if err != nil {
		return fmt.Errorf("invalid IRI syntax: %w", err)
	}

	if parsed.Scheme != "" {
		if c := parsed.Scheme[0]; !isASCIILetter(c) {
			return fmt.Errorf("scheme must start with a letter: %s", iri)
		}
	} else if strings.HasPrefix(iri, "//") {
		return fmt.Errorf("relative IRI without scheme: %s", iri)
	} else if scheme, _, found := strings.Cut(iri, ":"); found && !isPathReference(iri) && !validScheme(scheme) {
		return fmt.Errorf("IRI appears to be missing a scheme: %s", iri)
	}

	for i, r := range iri {
		switch {
		case r < 0x20 && r != '\t' && r != '\n' && r != '\r':
			return fmt.Errorf("invalid control character at position %d in IRI: %s", i, iri)
		case r == '<' || r == '>':
			return fmt.Errorf("invalid character '%c' at position %d in IRI (should be percent-encoded): %s", r, i, iri)
		}
	}
	return nil
}

func isPathReference(iri string) bool {
	return strings.HasPrefix(iri, "/") || strings.HasPrefix(iri, "./") || strings.HasPrefix(iri, "../")
}

func validScheme(scheme string) bool {
	if scheme == "" {
		return false
	}
	for i := 0; i < len(scheme); i++ {
		c := scheme[i]
		if !isASCIILetter(c) && !(c >= '0' && c <= '9') && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// validateQuadIRIs runs ValidateIRI on every IRI of q, including literal datatypes.
func validateQuadIRIs(q Quad) error {
	check := func(position, iri string) error {
		if err := ValidateIRI(iri); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedInput, position, err)
		}
		return nil
	}
	if err := check("predicate", q.P.Value); err != nil {
		return err
	}
	for _, c := range [...]struct {
		position string
		term     Term
	}{{"subject", q.S}, {"object", q.O}, {"graph", q.G}} {
		switch t := c.term.(type) {
		case IRI:
			if err := check(c.position, t.Value); err != nil {
				return err
			}
		case Literal:
			if t.Datatype.Value != "" {
				if err := check(c.position+" datatype", t.Datatype.Value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
