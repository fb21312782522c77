// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zipflat/internal/history"
	"github.com/pdiddy/zipflat/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and export recorded extraction runs",
	Long: `History reads the SQLite database given by --history-db (or the
history_db config key) and lists or exports recorded extraction runs.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List recent extraction runs, newest first",
	SilenceUsage: true,
	RunE:         runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRuns(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatRuns(w io.Writer, runs []history.RunSummary, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-20s  %-9s  %-7s  %-6s  %-5s  %s\n",
		"Run", "Started", "Extracted", "Invalid", "Failed", "Files", "Destination")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, r := range runs {
		started := "-"
		if !r.StartedAt.IsZero() {
			started = r.StartedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%-5d  %-20s  %-9d  %-7d  %-6d  %-5d  %s\n",
			r.ID, started, r.Extracted, r.Invalid, r.Failed, r.Files, r.DestDir)
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:          "export",
	Short:        "Export one recorded run to YAML or JSON",
	SilenceUsage: true,
	RunE:         runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetInt64("run")
	if id <= 0 {
		return fmt.Errorf("--run is required: pass a run ID from 'zipflat history list'")
	}
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		ext := format
		if ext == "" {
			ext = "yaml"
		}
		output = fmt.Sprintf("run-%d.%s", id, ext)
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch format {
	case "yaml", "":
		err = store.ExportYAML(ctx, id, output)
	case "json":
		err = store.ExportJSON(ctx, id, output)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported run %d to %s\n", id, output)
	return nil
}

// --- shared helpers ---

func openHistory() (*history.Store, error) {
	dbPath := viper.GetString("history_db")
	if dbPath == "" {
		return nil, fmt.Errorf("no history database: set --history-db or history_db in the config file")
	}
	return history.NewStore(types.HistoryConfig{DBPath: dbPath})
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyListCmd.Flags().Bool("json", false, "output runs as JSON")

	historyExportCmd.Flags().Int64("run", 0, "run ID to export")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "output path (default run-<id>.<format>)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
