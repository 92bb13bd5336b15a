package rdf

import (
	"fmt"
	"sort"
	"strings"

	ld "github.com/piprate/json-gold/ld"
)

const ldDefaultGraph = "@default"

// FromLDDataset converts a json-gold dataset into quads. Graphs are visited in sorted
// name order so the result does not depend on map iteration.
func FromLDDataset(dataset *ld.RDFDataset) ([]Quad, error) {
	if dataset == nil {
		return nil, nil
	}
	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		names = append(names, name)
	}
	sort.Strings(names)

	var quads []Quad
	for _, name := range names {
		for _, lq := range dataset.Graphs[name] {
			if lq == nil {
				continue
			}
			q, err := fromLDQuad(lq, name)
			if err != nil {
				return nil, err
			}
			quads = append(quads, q)
		}
	}
	return quads, nil
}

func fromLDQuad(lq *ld.Quad, graphName string) (Quad, error) {
	s, err := fromLDNode(lq.Subject)
	if err != nil {
		return Quad{}, err
	}
	p, err := fromLDNode(lq.Predicate)
	if err != nil {
		return Quad{}, err
	}
	pred, ok := p.(IRI)
	if !ok {
		return Quad{}, fmt.Errorf("%w: predicate must be an IRI, got %v", ErrMalformedInput, p)
	}
	o, err := fromLDNode(lq.Object)
	if err != nil {
		return Quad{}, err
	}
	q := Quad{S: s, P: pred, O: o}
	switch {
	case lq.Graph != nil:
		if q.G, err = fromLDNode(lq.Graph); err != nil {
			return Quad{}, err
		}
	case graphName != "" && graphName != ldDefaultGraph:
		q.G = graphTermFromName(graphName)
	}
	if err := q.Validate(); err != nil {
		return Quad{}, err
	}
	return q, nil
}

func fromLDNode(node ld.Node) (Term, error) {
	switch n := node.(type) {
	case nil:
		return nil, nil
	case ld.IRI:
		return IRI{Value: n.Value}, nil
	case *ld.IRI:
		return IRI{Value: n.Value}, nil
	case ld.BlankNode:
		return BlankNode{ID: strings.TrimPrefix(n.Attribute, "_:")}, nil
	case *ld.BlankNode:
		return BlankNode{ID: strings.TrimPrefix(n.Attribute, "_:")}, nil
	case ld.Literal:
		return fromLDLiteral(n.Value, n.Datatype, n.Language), nil
	case *ld.Literal:
		return fromLDLiteral(n.Value, n.Datatype, n.Language), nil
	default:
		return nil, fmt.Errorf("%w: unsupported json-gold node %T", ErrMalformedInput, node)
	}
}

func fromLDLiteral(value, datatype, lang string) Literal {
	lit := Literal{Lexical: value, Lang: lang}
	if lang == "" && datatype != "" && datatype != XSDString {
		lit.Datatype = IRI{Value: datatype}
	}
	return lit
}

func graphTermFromName(name string) Term {
	if strings.HasPrefix(name, "_:") {
		return BlankNode{ID: strings.TrimPrefix(name, "_:")}
	}
	return IRI{Value: name}
}

// ToLDDataset converts quads into a json-gold dataset keyed by graph name.
func ToLDDataset(quads []Quad) *ld.RDFDataset {
	dataset := ld.NewRDFDataset()
	for _, q := range quads {
		name := ldDefaultGraph
		var graph ld.Node
		if !q.InDefaultGraph() {
			graph = toLDNode(q.G)
			name = graph.GetValue()
		}
		dataset.Graphs[name] = append(dataset.Graphs[name], &ld.Quad{
			Subject:   toLDNode(q.S),
			Predicate: ld.NewIRI(q.P.Value),
			Object:    toLDNode(q.O),
			Graph:     graph,
		})
	}
	return dataset
}

func toLDNode(t Term) ld.Node {
	switch v := t.(type) {
	case IRI:
		return ld.NewIRI(v.Value)
	case BlankNode:
		return ld.NewBlankNode(v.String())
	case Literal:
		return ld.NewLiteral(v.Lexical, v.DatatypeIRI(), v.Lang)
	default:
		return nil
	}
}
