//go:build mage

// Package main contains Mage build targets for zipflat developer tooling.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// workDirs lists the folders a default extraction run reads from and writes to.
var workDirs = []string{
	"Data malam ini",
	"Hasil Ekstraksi Teks",
}

// Init creates the default source and destination folders.
func Init() error {
	for _, dir := range workDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Working folders initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "zipflat"
	cmdPkg  = "./cmd/zipflat"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests for every package.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Extract builds the CLI and runs a default extraction in the current directory.
func Extract() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "extract")
}

// Stats prints Go production/test line counts and the word count of the
// top-level Markdown documents.
func Stats() error {
	prod, test, err := countGoLines(".")
	if err != nil {
		return err
	}
	words, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", test)
	fmt.Printf("Words (documentation):          %d\n", words)
	return nil
}

// countGoLines counts non-blank lines in .go files under root, split into
// production and _test.go totals. Hidden and underscore directories are skipped.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) > 0 {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}

// countDocWords counts whitespace-separated words in the .md files directly in dir.
func countDocWords(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return 0, err
	}
	total := 0
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(strings.Fields(string(data)))
	}
	return total, nil
}
