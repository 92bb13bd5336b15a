package rdf

import (
	"errors"
	"testing"
)

func TestTermKindsAndStrings(t *testing.T) {
	iri := IRI{Value: "http://example.org/s"}
	if iri.Kind() != TermIRI {
		t.Fatalf("expected IRI kind")
	}
	if iri.String() != "http://example.org/s" {
		t.Fatalf("unexpected IRI string: %s", iri.String())
	}

	blank := BlankNode{ID: "b1"}
	if blank.Kind() != TermBlankNode {
		t.Fatalf("expected blank node kind")
	}
	if blank.String() != "_:b1" {
		t.Fatalf("unexpected blank node string: %s", blank.String())
	}

	litPlain := Literal{Lexical: "plain"}
	if litPlain.Kind() != TermLiteral {
		t.Fatalf("expected literal kind")
	}
	if litPlain.String() != "\"plain\"" {
		t.Fatalf("unexpected literal string: %s", litPlain.String())
	}

	litLang := Literal{Lexical: "hi", Lang: "en"}
	if litLang.String() != "\"hi\"@en" {
		t.Fatalf("unexpected lang literal: %s", litLang.String())
	}

	litDT := Literal{Lexical: "1", Datatype: IRI{Value: "http://example.org/int"}}
	if litDT.String() != "\"1\"^^<http://example.org/int>" {
		t.Fatalf("unexpected datatype literal: %s", litDT.String())
	}

	litXSD := Literal{Lexical: "x", Datatype: IRI{Value: XSDString}}
	if litXSD.String() != "\"x\"" {
		t.Fatalf("xsd:string should be implicit: %s", litXSD.String())
	}
}

func TestTermKindString(t *testing.T) {
	cases := map[TermKind]string{
		TermIRI:       "iri",
		TermBlankNode: "blank node",
		TermLiteral:   "literal",
		TermKind(9):   "TermKind(9)",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%d: got %q, want %q", kind, got, want)
		}
	}
}

func TestLiteralDatatypeIRI(t *testing.T) {
	tests := []struct {
		name string
		lit  Literal
		want string
	}{
		{"plain", Literal{Lexical: "a"}, XSDString},
		{"lang", Literal{Lexical: "a", Lang: "en"}, RDFLangString},
		{"typed", Literal{Lexical: "1", Datatype: IRI{Value: "http://example.org/int"}}, "http://example.org/int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.lit.DatatypeIRI(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuadString(t *testing.T) {
	q := Quad{
		S: BlankNode{ID: "x"},
		P: IRI{Value: "http://example.org/p"},
		O: Literal{Lexical: "say \"hi\"\n"},
		G: IRI{Value: "http://example.org/g"},
	}
	want := `_:x <http://example.org/p> "say \"hi\"\n" <http://example.org/g> .`
	if got := q.String(); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
	if q.InDefaultGraph() {
		t.Fatal("expected named graph")
	}
	if !q.HasBlankNode() {
		t.Fatal("expected blank node")
	}
}

func TestQuadValidate(t *testing.T) {
	s := IRI{Value: "http://example.org/s"}
	p := IRI{Value: "http://example.org/p"}
	o := IRI{Value: "http://example.org/o"}

	tests := []struct {
		name    string
		quad    Quad
		wantErr bool
	}{
		{"valid", Quad{S: s, P: p, O: o}, false},
		{"valid blank graph", Quad{S: BlankNode{ID: "a"}, P: p, O: Literal{Lexical: "x"}, G: BlankNode{ID: "g"}}, false},
		{"literal subject", Quad{S: Literal{Lexical: "x"}, P: p, O: o}, true},
		{"missing subject", Quad{P: p, O: o}, true},
		{"missing predicate", Quad{S: s, O: o}, true},
		{"missing object", Quad{S: s, P: p}, true},
		{"literal graph", Quad{S: s, P: p, O: o, G: Literal{Lexical: "g"}}, true},
		{"empty blank id", Quad{S: BlankNode{}, P: p, O: o}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quad.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedInput) {
					t.Fatalf("expected ErrMalformedInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTripleToQuad(t *testing.T) {
	tr := Triple{S: IRI{Value: "http://example.org/s"}, P: IRI{Value: "http://example.org/p"}, O: BlankNode{ID: "o"}}
	if q := tr.ToQuadInGraph(nil); !q.InDefaultGraph() || q.ToTriple() != tr {
		t.Fatalf("unexpected quad: %+v", q)
	}
	g := IRI{Value: "http://example.org/g"}
	if q := tr.ToQuadInGraph(g); q.G != g {
		t.Fatalf("expected graph %v, got %v", g, q.G)
	}
}

func TestDatasetQuadsRoundTrip(t *testing.T) {
	p := IRI{Value: "http://example.org/p"}
	quads := []Quad{
		{S: BlankNode{ID: "a"}, P: p, O: Literal{Lexical: "1"}},
		{S: BlankNode{ID: "a"}, P: p, O: Literal{Lexical: "2"}, G: IRI{Value: "http://example.org/g"}},
		{S: BlankNode{ID: "b"}, P: p, O: Literal{Lexical: "3"}},
	}
	ds := NewDatasetFromQuads(quads)
	if len(ds.Graphs) != 2 {
		t.Fatalf("expected 2 graphs, got %d", len(ds.Graphs))
	}
	if ds.Graphs[0].Name != nil || len(ds.Graphs[0].Triples) != 2 {
		t.Fatalf("unexpected default graph: %+v", ds.Graphs[0])
	}
	if got := ds.Quads(); len(got) != 3 {
		t.Fatalf("expected 3 quads, got %d", len(got))
	}
}
