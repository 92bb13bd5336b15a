package rdf

import (
	"context"
	"errors"
	"testing"

	ld "github.com/piprate/json-gold/ld"
)

func TestLDDatasetRoundTrip(t *testing.T) {
	quads := mustParse(t, mixedDataset)
	back, err := FromLDDataset(ToLDDataset(quads))
	if err != nil {
		t.Fatalf("FromLDDataset: %v", err)
	}
	if len(back) != len(quads) {
		t.Fatalf("expected %d quads, got %d", len(quads), len(back))
	}
	same, err := Isomorphic(context.Background(), quads, back)
	if err != nil {
		t.Fatal(err)
	}
	if !same {
		t.Fatal("round trip through json-gold changed the dataset")
	}
}

func TestFromLDDatasetParsedNQuads(t *testing.T) {
	serializer := &ld.NQuadRDFSerializer{}
	dataset, err := serializer.Parse(mixedDataset)
	if err != nil {
		t.Fatalf("json-gold parse: %v", err)
	}
	quads, err := FromLDDataset(dataset)
	if err != nil {
		t.Fatalf("FromLDDataset: %v", err)
	}
	want := canonicalText(t, mustParse(t, mixedDataset))
	if got := canonicalText(t, quads); got != want {
		t.Fatalf("json-gold parse canonicalizes differently:\n%s\nvs\n%s", got, want)
	}
}

func TestFromLDDatasetRejectsBlankPredicate(t *testing.T) {
	dataset := ld.NewRDFDataset()
	dataset.Graphs["@default"] = []*ld.Quad{{
		Subject:   ld.NewIRI("urn:s"),
		Predicate: ld.NewBlankNode("_:p"),
		Object:    ld.NewIRI("urn:o"),
	}}
	if _, err := FromLDDataset(dataset); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestFromLDDatasetNil(t *testing.T) {
	quads, err := FromLDDataset(nil)
	if err != nil || quads != nil {
		t.Fatalf("expected nil, nil; got %v, %v", quads, err)
	}
}
