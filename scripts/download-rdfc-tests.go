//go:build ignore

// Command download-rdfc-tests fetches the RDF Dataset Canonicalization test suite.
//
//	go run scripts/download-rdfc-tests.go ./testdata/rdfc
//	RDFC_TESTS_DIR=./testdata/rdfc go test ./rdf -run TestRDFCConformance
package main

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	suiteURL = "https://github.com/w3c/rdf-canon/archive/refs/heads/main.zip"
	// only the test cases are extracted
	suiteDir = "tests/rdfc10/"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <output-directory>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDownloads the RDFC-1.0 test cases (*-in.nq, *-rdfc10.nq, *-rdfc10map.json).\n")
		os.Exit(1)
	}

	outputDir := os.Args[1]
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	archive, err := download(suiteURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error downloading suite: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(archive)

	n, err := extract(archive, outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting suite: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Extracted %d files to %s\n", n, outputDir)
}

func download(url string) (string, error) {
	fmt.Printf("Fetching %s...\n", url)
	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	out, err := os.CreateTemp("", "rdf-canon-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to save download: %w", err)
	}
	return out.Name(), nil
}

// extract copies every file below suiteDir into outputDir, dropping the archive's
// top-level "rdf-canon-main/" directory.
func extract(archive, outputDir string) (int, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		_, rel, ok := strings.Cut(f.Name, "/")
		if !ok || !strings.HasPrefix(rel, suiteDir) {
			continue
		}
		rel = strings.TrimPrefix(rel, suiteDir)
		destPath := filepath.Join(outputDir, filepath.FromSlash(rel))
		if !strings.HasPrefix(destPath, filepath.Clean(outputDir)+string(os.PathSeparator)) {
			return count, fmt.Errorf("archive entry escapes output directory: %s", f.Name)
		}
		if err := copyEntry(f, destPath); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func copyEntry(f *zip.File, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
