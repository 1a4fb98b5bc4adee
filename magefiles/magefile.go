// Package main provides build targets for the sndeals project using Mage.
//
// Usage:
//
//	mage build       Compile sndeals binary to bin/
//	mage test:all    Run all tests verbosely
//	mage test:unit   Run all tests
//	mage test:race   Run tests with the race detector
//	mage test:cover  Write coverage.out and print coverage per function
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install sndeals to GOPATH/bin
//	mage stats       Print Go lines of code per top-level directory
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// lineCount holds production and test line totals.
type lineCount struct {
	prod, test int
}

// Stats prints Go lines of code per top-level directory.
func Stats() error {
	counts, err := lineStats(".")
	if err != nil {
		return err
	}
	dirs := make([]string, 0, len(counts))
	for d := range counts {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var total lineCount
	fmt.Printf("%-10s %8s %8s\n", "DIR", "PROD", "TEST")
	for _, d := range dirs {
		c := counts[d]
		fmt.Printf("%-10s %8d %8d\n", d, c.prod, c.test)
		total.prod += c.prod
		total.test += c.test
	}
	fmt.Printf("%-10s %8d %8d\n", "total", total.prod, total.test)
	return nil
}

// lineStats counts Go lines under root keyed by top-level directory.
// Hidden and underscore directories, vendor, bin, and magefiles are skipped.
func lineStats(root string) (map[string]lineCount, error) {
	counts := map[string]lineCount{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if rel != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == binaryDir || name == "magefiles") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		top, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
		if top == d.Name() {
			top = "."
		}
		c := counts[top]
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		counts[top] = c
		return nil
	})
	return counts, err
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
