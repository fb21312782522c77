// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract flattens a directory of zip archives into a single
// destination directory, naming each output "<stem>__<entry base name>".
package extract

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/zipflat/pkg/types"
)

var (
	// ErrInvalidArchive marks an archive that is not a readable zip file.
	ErrInvalidArchive = errors.New("not a valid zip archive or corrupt")

	// ErrSourceMissing is returned by CheckSource when the source is not a directory.
	ErrSourceMissing = errors.New("source directory not found")
)

// CheckSource reports whether dir exists and is a directory.
func CheckSource(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, dir)
		}
		return fmt.Errorf("checking source directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSourceMissing, dir)
	}
	return nil
}

// Stem returns name without its final extension. Names that are only an
// extension (".zip") are returned unchanged.
func Stem(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return name
	}
	return stem
}

// EntryBaseName returns the last path component of an archive entry name.
// Both '/' and '\' separate components, since some zip writers emit the latter.
func EntryBaseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}

// OutputName joins an archive stem and an entry's base name with the
// default separator.
func OutputName(stem, entryName string) string {
	return outputName(stem, entryName, types.DefaultSeparator)
}

func outputName(stem, entryName, sep string) string {
	return stem + sep + EntryBaseName(entryName)
}

// FindArchives lists the files in dir whose names match pattern. The scan
// is not recursive; subdirectories are ignored even when their names match.
func FindArchives(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("matching pattern %q: %w", pattern, err)
		}
		if ok {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}

// ExtractBatch extracts every archive in cfg.SourceDir into cfg.DestDir,
// printing per-entry and per-archive status to w. A failing archive never
// stops the batch; the returned error only covers preparing the destination
// and listing the source.
func ExtractBatch(cfg types.ExtractionConfig, w io.Writer) (types.BatchResult, error) {
	cfg = cfg.WithDefaults()
	result := types.BatchResult{
		SourceDir: cfg.SourceDir,
		DestDir:   cfg.DestDir,
		StartedAt: time.Now().UTC(),
	}

	if err := os.MkdirAll(cfg.DestDir, 0o755); err != nil {
		return result, fmt.Errorf("creating destination directory %s: %w", cfg.DestDir, err)
	}
	fmt.Fprintf(w, "destination ready: %s\n", cfg.DestDir)

	archives, err := FindArchives(cfg.SourceDir, cfg.Pattern)
	if err != nil {
		return result, err
	}

	// seen maps each output path written this run to the archive that wrote it.
	seen := make(map[string]string)
	for _, path := range archives {
		fmt.Fprintf(w, "\nprocessing: %s\n", filepath.Base(path))
		result.Add(ExtractArchive(path, cfg, seen, w))
	}

	result.FinishedAt = time.Now().UTC()
	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d invalid, %d failed (archives: %d, files: %d)\n",
		result.Extracted, result.Invalid, result.Failed, result.Total(), result.Files)
	return result, nil
}

// ExtractArchive writes every regular-file entry of the archive at path into
// cfg.DestDir. Failures are reported to w and recorded in the result rather
// than returned. seen may be nil; when set it is used to flag outputs that
// overwrite a file written earlier in the same run.
func ExtractArchive(path string, cfg types.ExtractionConfig, seen map[string]string, w io.Writer) types.ArchiveResult {
	cfg = cfg.WithDefaults()
	name := filepath.Base(path)
	res := types.ArchiveResult{
		Name:   name,
		Stem:   Stem(name),
		Path:   path,
		Status: types.ArchiveExtracted,
	}

	err := extractEntries(&res, cfg, seen, w)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidArchive):
		res.Status = types.ArchiveInvalid
		res.Error = err.Error()
		fmt.Fprintf(w, "  invalid: %s (%s)\n", name, ErrInvalidArchive)
	default:
		res.Status = types.ArchiveFailed
		res.Error = err.Error()
		fmt.Fprintf(w, "  failed:  %s (%v)\n", name, err)
	}
	return res
}

func extractEntries(res *types.ArchiveResult, cfg types.ExtractionConfig, seen map[string]string, w io.Writer) error {
	zr, err := zip.OpenReader(res.Path)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		if isCorrupt(err) {
			return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		return fmt.Errorf("opening archive: %w", err)
	}
	// Insecure entry names are safe here: only the base name reaches disk.
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			res.Skipped++
			continue
		}
		base := EntryBaseName(f.Name)
		if base == "" {
			res.Skipped++
			continue
		}

		outPath := filepath.Join(cfg.DestDir, outputName(res.Stem, f.Name, cfg.Separator))
		n, err := writeEntry(f, outPath)
		if err != nil {
			if isCorrupt(err) {
				return fmt.Errorf("%w: entry %s: %v", ErrInvalidArchive, f.Name, err)
			}
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}

		out := types.OutputFile{Entry: f.Name, Path: outPath, Size: n}
		if seen != nil {
			if prev, ok := seen[outPath]; ok {
				out.Overwrote = true
				fmt.Fprintf(w, "  warning: %s overwrites output from %s\n", outPath, prev)
			}
			seen[outPath] = res.Name
		}
		res.Outputs = append(res.Outputs, out)
		fmt.Fprintf(w, "  extracted: %s -> %s\n", f.Name, outPath)
	}
	return nil
}

// writeEntry copies the entry's decompressed bytes to destPath, truncating
// any existing file. Both streams are closed on every path.
func writeEntry(f *zip.File, destPath string) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("opening entry: %w", err)
	}
	defer rc.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}

	n, copyErr := io.Copy(out, rc)
	closeErr := out.Close()
	if copyErr != nil {
		return n, fmt.Errorf("writing output file: %w", copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("closing output file: %w", closeErr)
	}
	return n, nil
}

// isCorrupt reports whether err comes from a malformed or unsupported archive.
func isCorrupt(err error) bool {
	return errors.Is(err, zip.ErrFormat) ||
		errors.Is(err, zip.ErrAlgorithm) ||
		errors.Is(err, zip.ErrChecksum)
}
