package rdf

import (
	"fmt"
	"strings"
)

const (
	// XSDString is the implicit datatype of plain literals.
	XSDString = "http://www.w3.org/2001/XMLSchema#string"
	// RDFLangString is the datatype of language-tagged literals.
	RDFLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// TermIRI represents an IRI term.
	TermIRI TermKind = iota
	// TermBlankNode represents a blank node term.
	TermBlankNode
	// TermLiteral represents a literal term.
	TermLiteral
)

// String returns a short name for the kind.
func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return "iri"
	case TermBlankNode:
		return "blank node"
	case TermLiteral:
		return "literal"
	default:
		return fmt.Sprintf("TermKind(%d)", k)
	}
}

// Term is a value that can appear in RDF statements.
type Term interface {
	Kind() TermKind
	String() string
}

// IRI represents an RDF IRI.
type IRI struct {
	// Value is the IRI string value.
	Value string
}

// Kind returns TermIRI.
func (i IRI) Kind() TermKind { return TermIRI }

// String returns the IRI value.
func (i IRI) String() string { return i.Value }

// BlankNode represents an RDF blank node.
type BlankNode struct {
	// ID is the blank node identifier, without the "_:" prefix.
	ID string
}

// Kind returns TermBlankNode.
func (b BlankNode) Kind() TermKind { return TermBlankNode }

// String returns the blank node identifier prefixed with "_:".
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal represents an RDF literal.
type Literal struct {
	// Lexical is the lexical form of the literal.
	Lexical string
	// Datatype is the datatype IRI. Empty means xsd:string.
	Datatype IRI
	// Lang is the language tag, if any.
	Lang string
}

// Kind returns TermLiteral.
func (l Literal) Kind() TermKind { return TermLiteral }

// String returns the literal in N-Quads syntax.
func (l Literal) String() string {
	return renderLiteral(l)
}

// DatatypeIRI returns the effective datatype, filling in xsd:string and rdf:langString.
func (l Literal) DatatypeIRI() string {
	if l.Lang != "" {
		return RDFLangString
	}
	if l.Datatype.Value == "" {
		return XSDString
	}
	return l.Datatype.Value
}

// Triple is an RDF triple.
type Triple struct {
	// S is the subject.
	S Term
	// P is the predicate.
	P IRI
	// O is the object.
	O Term
}

// Quad is an RDF quad (triple + optional graph name).
type Quad struct {
	// S is the subject.
	S Term
	// P is the predicate.
	P IRI
	// O is the object.
	O Term
	// G is the graph name, or nil for the default graph.
	G Term
}

// ToTriple extracts the triple from a quad (ignores graph).
func (q Quad) ToTriple() Triple {
	return Triple{S: q.S, P: q.P, O: q.O}
}

// InDefaultGraph reports whether the quad is in the default graph (no named graph).
func (q Quad) InDefaultGraph() bool {
	return q.G == nil
}

// HasBlankNode reports whether any of subject, object or graph is a blank node.
func (q Quad) HasBlankNode() bool {
	return isBlank(q.S) || isBlank(q.O) || isBlank(q.G)
}

// String returns the quad as a single N-Quads line without the trailing newline.
func (q Quad) String() string {
	return strings.TrimSuffix(SerializeQuad(q), "\n")
}

// Validate checks the structural invariants of a quad: subject is an IRI or blank node,
// predicate is a non-empty IRI, object is present and graph is an IRI, a blank node or nil.
func (q Quad) Validate() error {
	switch q.S.(type) {
	case IRI, BlankNode:
	case nil:
		return fmt.Errorf("%w: missing subject", ErrMalformedInput)
	default:
		return fmt.Errorf("%w: %s not allowed as subject", ErrMalformedInput, q.S.Kind())
	}
	if q.P.Value == "" {
		return fmt.Errorf("%w: missing predicate", ErrMalformedInput)
	}
	switch q.O.(type) {
	case IRI, BlankNode, Literal:
	case nil:
		return fmt.Errorf("%w: missing object", ErrMalformedInput)
	default:
		return fmt.Errorf("%w: unsupported object term %T", ErrMalformedInput, q.O)
	}
	switch q.G.(type) {
	case nil, IRI, BlankNode:
	default:
		return fmt.Errorf("%w: %s not allowed as graph name", ErrMalformedInput, q.G.Kind())
	}
	for _, t := range [...]Term{q.S, q.O, q.G} {
		if b, ok := t.(BlankNode); ok && b.ID == "" {
			return fmt.Errorf("%w: empty blank node identifier", ErrMalformedInput)
		}
	}
	return nil
}

// ToQuadInGraph converts a triple to a quad in graph; a nil graph is the default graph.
func (t Triple) ToQuadInGraph(graph Term) Quad {
	return Quad{S: t.S, P: t.P, O: t.O, G: graph}
}

// Graph is a list of triples with an optional name. A nil Name is the default graph.
type Graph struct {
	Name    Term
	Triples []Triple
}

// Dataset is a default graph plus zero or more named graphs.
type Dataset struct {
	Graphs []Graph
}

// Quads flattens the dataset, stamping each triple with the name of its graph.
func (d Dataset) Quads() []Quad {
	n := 0
	for _, g := range d.Graphs {
		n += len(g.Triples)
	}
	quads := make([]Quad, 0, n)
	for _, g := range d.Graphs {
		for _, t := range g.Triples {
			quads = append(quads, t.ToQuadInGraph(g.Name))
		}
	}
	return quads
}

// NewDatasetFromQuads groups quads by graph name, keeping first-appearance order of graphs.
func NewDatasetFromQuads(quads []Quad) Dataset {
	var ds Dataset
	index := map[string]int{}
	for _, q := range quads {
		key := graphKey(q.G)
		i, ok := index[key]
		if !ok {
			i = len(ds.Graphs)
			index[key] = i
			ds.Graphs = append(ds.Graphs, Graph{Name: q.G})
		}
		ds.Graphs[i].Triples = append(ds.Graphs[i].Triples, q.ToTriple())
	}
	return ds
}

func graphKey(g Term) string {
	if g == nil {
		return ""
	}
	return renderTerm(g)
}

func isBlank(t Term) bool {
	_, ok := t.(BlankNode)
	return ok
}
