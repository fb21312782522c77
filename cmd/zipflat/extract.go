// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zipflat/internal/extract"
	"github.com/pdiddy/zipflat/internal/history"
	"github.com/pdiddy/zipflat/pkg/types"
)

const (
	defaultSourceDir = "Data malam ini"
	defaultDestDir   = "Hasil Ekstraksi Teks"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract every zip archive in the source folder into the destination folder",
	Long: `Extract scans the source folder (not recursively) for *.zip archives and
writes every file they contain into the destination folder as
"<archive stem>__<file name>". Invalid or corrupt archives are reported and
skipped; a failure in one archive never stops the batch.`,
	SilenceUsage: true,
	RunE:         runExtract,
}

func init() {
	extractCmd.Flags().String("source", defaultSourceDir, "folder containing the zip archives")
	extractCmd.Flags().String("dest", defaultDestDir, "folder receiving the extracted files (created if missing)")
	extractCmd.Flags().String("manifest", "", "write a YAML or JSON record of the run to this path")

	_ = viper.BindPFlag("source_dir", extractCmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("dest_dir", extractCmd.Flags().Lookup("dest"))
	_ = viper.BindPFlag("manifest", extractCmd.Flags().Lookup("manifest"))

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := types.ExtractionConfig{
		SourceDir: viper.GetString("source_dir"),
		DestDir:   viper.GetString("dest_dir"),
	}
	return runBatch(cmd.Context(), cfg, viper.GetString("manifest"), viper.GetString("history_db"), cmd.OutOrStdout())
}

// runBatch checks the source folder, runs the extraction and writes the
// optional manifest and history record.
func runBatch(ctx context.Context, cfg types.ExtractionConfig, manifestPath, historyDB string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := extract.CheckSource(cfg.SourceDir); err != nil {
		fmt.Fprintf(w, "Make sure you run this from the directory that contains '%s'.\n", cfg.SourceDir)
		return fmt.Errorf("source folder '%s' not found!", cfg.SourceDir)
	}

	result, err := extract.ExtractBatch(cfg, w)
	if err != nil {
		return err
	}

	if manifestPath != "" {
		if err := extract.WriteManifest(manifestPath, result); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}
		fmt.Fprintf(w, "manifest written: %s\n", manifestPath)
	}

	if historyDB != "" {
		store, err := history.NewStore(types.HistoryConfig{DBPath: historyDB})
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.Record(ctx, result)
		if err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
		fmt.Fprintf(w, "recorded run %d in %s\n", id, historyDB)
	}

	fmt.Fprintf(w, "\nExtraction finished. Check the folder '%s'.\n", cfg.DestDir)
	return nil
}
