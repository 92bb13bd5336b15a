package rdf

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	ld "github.com/piprate/json-gold/ld"
)

// rdfcExpectations maps result-file suffixes to the variant that produces them.
var rdfcExpectations = []struct {
	suffix    string
	algorithm Algorithm
}{
	{"-rdfc10.nq", AlgorithmURDNA2015},
	{"-urdna2015.nq", AlgorithmURDNA2015},
	{"-urgna2012.nq", AlgorithmURGNA2012},
}

// TestRDFCConformance runs the RDF canonicalization test suite.
// Set RDFC_TESTS_DIR to a checkout of the suite (see scripts/download-rdfc-tests.go).
// Every "<name>-in.nq" file is canonicalized with each variant that has a sibling result
// file; "<name>-rdfc10map.json" files are compared against the issued identifiers.
func TestRDFCConformance(t *testing.T) {
	root := os.Getenv("RDFC_TESTS_DIR")
	if root == "" {
		t.Skip("RDFC_TESTS_DIR not set; skipping canonicalization conformance tests")
	}

	var inputs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, "-in.nq") {
			inputs = append(inputs, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	if len(inputs) == 0 {
		t.Fatalf("no *-in.nq files under %s", root)
	}
	sort.Strings(inputs)

	for _, input := range inputs {
		base := strings.TrimSuffix(input, "-in.nq")
		name, _ := filepath.Rel(root, base)
		for _, exp := range rdfcExpectations {
			expected := base + exp.suffix
			if !fileExists(expected) {
				continue
			}
			t.Run(name+exp.suffix, func(t *testing.T) {
				runRDFCEvalTest(t, input, expected, exp.algorithm)
			})
		}
		if mapFile := base + "-rdfc10map.json"; fileExists(mapFile) {
			t.Run(name+"-rdfc10map", func(t *testing.T) {
				runRDFCMapTest(t, input, mapFile)
			})
		}
	}
}

func runRDFCEvalTest(t *testing.T, inputPath, expectedPath string, alg Algorithm) {
	input, err := os.ReadFile(inputPath)
	if err != nil {
		t.Fatal(err)
	}
	expected, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatal(err)
	}
	got, err := CanonicalizeNQuads(context.Background(), string(input), OptAlgorithm(alg))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if got != string(expected) {
		t.Fatalf("canonical form mismatch\n--- got\n%s--- want\n%s", got, expected)
	}
}

func runRDFCMapTest(t *testing.T, inputPath, mapPath string) {
	input, err := os.ReadFile(inputPath)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(mapPath)
	if err != nil {
		t.Fatal(err)
	}
	var want map[string]string
	if err := json.Unmarshal(raw, &want); err != nil {
		t.Fatalf("decode %s: %v", mapPath, err)
	}
	quads, err := ParseNQuadsString(context.Background(), string(input))
	if err != nil {
		t.Fatal(err)
	}
	result, err := Canonicalize(context.Background(), quads)
	if err != nil {
		t.Fatal(err)
	}
	for from, to := range want {
		if result.IssuedIDs[from] != to {
			t.Errorf("issued id for %s: got %q, want %q", from, result.IssuedIDs[from], to)
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

const (
	// blankGraphSubject uses _:g both as a graph name and as a subject.
	blankGraphSubject = `_:g <urn:p> _:x .
_:x <urn:q> "v" _:g .
_:g <urn:q> <urn:o> _:g .
_:y <urn:p> _:x _:g .
`
	// sixCycleInBlankGraph needs N-degree hashing with relations in every position.
	sixCycleInBlankGraph = `_:n0 <urn:p> _:n1 _:g .
_:n1 <urn:p> _:n2 _:g .
_:n2 <urn:p> _:n3 _:g .
_:n3 <urn:p> _:n4 _:g .
_:n4 <urn:p> _:n5 _:g .
_:n5 <urn:p> _:n0 _:g .
_:g <urn:q> _:n0 .
`
)

// TestMatchesJSONGoldNormalize compares both algorithms with json-gold's normalizer.
func TestMatchesJSONGoldNormalize(t *testing.T) {
	inputs := map[string]string{
		"pair":                symmetricPair,
		"six-cycle":           sixCycle,
		"triangles":           twoTriangles,
		"mixed":               mixedDataset,
		"ground":              "<urn:s> <urn:p> \"tab\\tquote\\\"\" .\n<urn:s> <urn:p> <urn:o> <urn:g> .\n",
		"blank-graph-subject": blankGraphSubject,
		"six-cycle-in-graph":  sixCycleInBlankGraph,
	}
	algorithms := map[Algorithm]string{
		AlgorithmURDNA2015: ld.AlgorithmURDNA2015,
		AlgorithmURGNA2012: ld.AlgorithmURGNA2012,
	}
	for alg, ldAlg := range algorithms {
		for name, input := range inputs {
			t.Run(string(alg)+"/"+name, func(t *testing.T) {
				quads := mustParse(t, input)
				want, err := jsonGoldNormalize(ToLDDataset(quads), ldAlg)
				if err != nil {
					t.Fatalf("json-gold: %v", err)
				}
				got := canonicalText(t, quads, OptAlgorithm(alg))
				if got != want {
					t.Fatalf("mismatch\n--- got\n%s--- json-gold\n%s", got, want)
				}
			})
		}
	}
}

func jsonGoldNormalize(dataset *ld.RDFDataset, algorithm string) (string, error) {
	api := ld.NewJsonLdApi()
	opts := ld.NewJsonLdOptions("")
	opts.Format = FormatNQuads
	opts.Algorithm = algorithm
	normalized, err := api.Normalize(dataset, opts)
	if err != nil {
		return "", err
	}
	text, ok := normalized.(string)
	if !ok {
		return "", errors.New("json-gold returned a non-string result")
	}
	return text, nil
}
