package rdf

import "strconv"

const (
	canonicalPrefix = "_:c14n"
	temporaryPrefix = "_:b"
)

// IdentifierIssuer mints sequential blank node identifiers with a fixed prefix and
// remembers which existing label received which new identifier.
//
// Branches of the N-degree search each own a clone, so an issuer is never shared
// between two explorations.
type IdentifierIssuer struct {
	prefix   string
	counter  int
	assigned map[string]string
	order    []string
}

// NewIdentifierIssuer returns an issuer minting prefix0, prefix1, ...
func NewIdentifierIssuer(prefix string) *IdentifierIssuer {
	return &IdentifierIssuer{prefix: prefix, assigned: map[string]string{}}
}

// ID returns the identifier issued for old, minting and recording a new one if needed.
func (i *IdentifierIssuer) ID(old string) string {
	if id, ok := i.assigned[old]; ok {
		return id
	}
	id := i.NewID()
	i.assigned[old] = id
	i.order = append(i.order, old)
	return id
}

// NewID mints a fresh identifier without recording a mapping.
func (i *IdentifierIssuer) NewID() string {
	id := i.prefix + strconv.Itoa(i.counter)
	i.counter++
	return id
}

// HasID reports whether old already has an identifier.
func (i *IdentifierIssuer) HasID(old string) bool {
	_, ok := i.assigned[old]
	return ok
}

// Lookup returns the identifier for old without minting.
func (i *IdentifierIssuer) Lookup(old string) (string, bool) {
	id, ok := i.assigned[old]
	return id, ok
}

// Issued returns the recorded labels in the order they received identifiers.
func (i *IdentifierIssuer) Issued() []string {
	out := make([]string, len(i.order))
	copy(out, i.order)
	return out
}

// Len returns the number of recorded mappings.
func (i *IdentifierIssuer) Len() int { return len(i.order) }

// Prefix returns the identifier prefix.
func (i *IdentifierIssuer) Prefix() string { return i.prefix }

// Clone returns an independent copy.
func (i *IdentifierIssuer) Clone() *IdentifierIssuer {
	assigned := make(map[string]string, len(i.assigned))
	for k, v := range i.assigned {
		assigned[k] = v
	}
	order := make([]string, len(i.order))
	copy(order, i.order)
	return &IdentifierIssuer{
		prefix:   i.prefix,
		counter:  i.counter,
		assigned: assigned,
		order:    order,
	}
}
