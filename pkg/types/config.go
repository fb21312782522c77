package types

// DefaultPattern matches the archives picked up from the source directory.
const DefaultPattern = "*.zip"

// DefaultSeparator joins an archive stem and an entry base name.
const DefaultSeparator = "__"

// ExtractionConfig holds settings for a batch extraction run.
type ExtractionConfig struct {
	// SourceDir is the directory scanned (non-recursively) for archives.
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// DestDir receives one file per extracted entry. Created if missing.
	DestDir string `json:"dest_dir" yaml:"dest_dir"`

	// Pattern is the filename glob selecting archives (default "*.zip").
	Pattern string `json:"pattern" yaml:"pattern"`

	// Separator joins the archive stem and entry base name (default "__").
	Separator string `json:"separator" yaml:"separator"`
}

// WithDefaults returns a copy of c with empty fields filled in.
func (c ExtractionConfig) WithDefaults() ExtractionConfig {
	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}
	if c.Separator == "" {
		c.Separator = DefaultSeparator
	}
	return c
}

// HistoryConfig holds settings for the run history database.
type HistoryConfig struct {
	// DBPath is the SQLite database file. Parent directories are created.
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default number of runs listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
