//go:build ignore

// Package main generates a synthetic class hierarchy for benchmarking scans.
// Usage: go run scripts/generate-test-corpus.go -classes 5000 -fanout 4 -output testdata/bench
package main

import (
	"archive/zip"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Aman-CERP/typeindex/internal/classfile/classfiletest"
)

var (
	numClasses = flag.Int("classes", 1000, "Number of classes to generate")
	fanout     = flag.Int("fanout", 4, "Direct subtypes per class")
	pkg        = flag.String("package", "com.bench", "Package of the generated classes")
	outputDir  = flag.String("output", "testdata/bench", "Output directory")
	jar        = flag.Bool("jar", false, "Write a single bench.jar instead of a class directory")
	resources  = flag.Int("resources", 50, "Number of .properties resources to add")
)

func main() {
	flag.Parse()

	files := classfiletest.Hierarchy(*pkg, *numClasses, *fanout)
	for i := 0; i < *resources; i++ {
		files[fmt.Sprintf("conf/module%d.properties", i)] = []byte(fmt.Sprintf("id=%d\n", i))
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	var err error
	if *jar {
		err = writeJar(filepath.Join(*outputDir, "bench.jar"), files)
	} else {
		err = writeDir(*outputDir, files)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing corpus: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d classes and %d resources in %s\n", *numClasses+1, *resources, *outputDir)
}

func writeDir(root string, files map[string][]byte) error {
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func writeJar(path string, files map[string][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := w.Write(files[name]); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}
