// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ArchiveStatus records how processing of one archive ended.
type ArchiveStatus string

const (
	ArchiveExtracted ArchiveStatus = "extracted"
	ArchiveInvalid   ArchiveStatus = "invalid"
	ArchiveFailed    ArchiveStatus = "failed"
)

// OutputFile describes one file written to the destination directory.
type OutputFile struct {
	// Entry is the entry's path inside the archive (e.g. "media/photo.jpg").
	Entry string `json:"entry" yaml:"entry"`

	// Path is the destination path the entry was written to.
	Path string `json:"path" yaml:"path"`

	// Size is the number of bytes written.
	Size int64 `json:"size" yaml:"size"`

	// Overwrote is set when an earlier output of the same run had this path.
	Overwrote bool `json:"overwrote,omitempty" yaml:"overwrote,omitempty"`
}

// ArchiveResult holds the outcome of processing a single archive.
type ArchiveResult struct {
	// Name is the archive filename (e.g. "Chat 1.zip").
	Name string `json:"name" yaml:"name"`

	// Stem is Name without its extension (e.g. "Chat 1").
	Stem string `json:"stem" yaml:"stem"`

	// Path is the archive's location on disk.
	Path string `json:"path" yaml:"path"`

	Status ArchiveStatus `json:"status" yaml:"status"`

	// Error is the failure message for invalid or failed archives.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Skipped counts directory-marker entries that produced no output.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Outputs lists the files written, in archive order. A failed archive
	// may have a partial list.
	Outputs []OutputFile `json:"outputs" yaml:"outputs"`
}

// BatchResult holds the outcome of a full extraction run.
type BatchResult struct {
	SourceDir  string    `json:"source_dir" yaml:"source_dir"`
	DestDir    string    `json:"dest_dir" yaml:"dest_dir"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Extracted int `json:"extracted" yaml:"extracted"`
	Invalid   int `json:"invalid" yaml:"invalid"`
	Failed    int `json:"failed" yaml:"failed"`

	// Files is the number of output files written across all archives.
	Files int `json:"files" yaml:"files"`

	Archives []ArchiveResult `json:"archives" yaml:"archives"`
}

// Total returns the number of archives processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Invalid + r.Failed
}

// HasFailures reports whether any archive was invalid or failed.
func (r BatchResult) HasFailures() bool {
	return r.Invalid > 0 || r.Failed > 0
}

// Add records an archive outcome and updates the counters.
func (r *BatchResult) Add(a ArchiveResult) {
	switch a.Status {
	case ArchiveExtracted:
		r.Extracted++
	case ArchiveInvalid:
		r.Invalid++
	case ArchiveFailed:
		r.Failed++
	}
	r.Files += len(a.Outputs)
	r.Archives = append(r.Archives, a)
}
