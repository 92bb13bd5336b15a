package rdf

import (
	"context"
	"testing"
)

func FuzzParseNQuads(f *testing.F) {
	f.Add(`<http://example.org/s> <http://example.org/p> "v" <http://example.org/g> .`)
	f.Add(`_:a <http://example.org/p> "xé"@en _:g .`)
	f.Add(`_:a <http://example.org/p> "1"^^<http://www.w3.org/2001/XMLSchema#integer> .`)
	f.Fuzz(func(t *testing.T, data string) {
		quads, err := ParseNQuadsString(context.Background(), data)
		if err != nil {
			return
		}
		for _, q := range quads {
			if err := q.Validate(); err != nil {
				t.Fatalf("parser produced invalid quad %+v: %v", q, err)
			}
		}
	})
}

func FuzzCanonicalizeInvariance(f *testing.F) {
	f.Add("_:a <urn:p> _:b .\n_:b <urn:p> _:a .\n")
	f.Add("_:a <urn:p> \"v\" _:g .\n_:g <urn:q> _:a .\n")
	f.Fuzz(func(t *testing.T, data string) {
		quads, err := ParseNQuadsString(context.Background(), data)
		if err != nil || len(quads) > 12 {
			return
		}
		want, err := Canonicalize(context.Background(), quads, OptMaxTotalSteps(100000))
		if err != nil {
			return
		}
		got, err := Canonicalize(context.Background(), relabel(quads, "f", 1), OptMaxTotalSteps(100000))
		if err != nil {
			return
		}
		if got.String() != want.String() {
			t.Fatalf("relabeling changed output:\n%s\nvs\n%s", got, want)
		}
	})
}
