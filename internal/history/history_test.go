// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/zipflat/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewStore(types.HistoryConfig{
		DBPath: filepath.Join(tmpDir, "state", "history.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, tmpDir
}

func sampleResult(dest string) types.BatchResult {
	start := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	return types.BatchResult{
		SourceDir:  "Data malam ini",
		DestDir:    dest,
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Extracted:  1,
		Invalid:    1,
		Files:      2,
		Archives: []types.ArchiveResult{
			{
				Name: "Chat 1.zip", Stem: "Chat 1", Path: "Data malam ini/Chat 1.zip",
				Status: types.ArchiveExtracted, Skipped: 1,
				Outputs: []types.OutputFile{
					{Entry: "_chat.txt", Path: filepath.Join(dest, "Chat 1___chat.txt"), Size: 120},
					{Entry: "media/photo.jpg", Path: filepath.Join(dest, "Chat 1__photo.jpg"), Size: 2048, Overwrote: true},
				},
			},
			{
				Name: "broken.zip", Stem: "broken", Path: "Data malam ini/broken.zip",
				Status: types.ArchiveInvalid, Error: "not a valid zip archive or corrupt: zip: not a valid zip file",
			},
		},
	}
}

// --- tests ---

func TestNewStore_EmptyPath(t *testing.T) {
	if _, err := NewStore(types.HistoryConfig{}); err == nil {
		t.Fatal("expected error for empty DBPath")
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s1, err := NewStore(types.HistoryConfig{DBPath: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.Record(ctx, sampleResult("out")); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := NewStore(types.HistoryConfig{DBPath: dbPath})
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer s2.Close()

	runs, err := s2.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs after reopen, want 1", len(runs))
	}
}

func TestRecordAndRun(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	want := sampleResult("Hasil Ekstraksi Teks")

	id, err := store.Record(ctx, want)
	if err != nil {
		t.Fatal(err)
	}
	if id <= 0 {
		t.Fatalf("run id = %d, want positive", id)
	}

	got, err := store.Run(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	if got.Extracted != 1 || got.Invalid != 1 || got.Failed != 0 || got.Files != 2 {
		t.Errorf("counts = %d/%d/%d/%d, want 1/1/0/2", got.Extracted, got.Invalid, got.Failed, got.Files)
	}
	if !got.StartedAt.Equal(want.StartedAt) || !got.FinishedAt.Equal(want.FinishedAt) {
		t.Errorf("times = %v..%v, want %v..%v", got.StartedAt, got.FinishedAt, want.StartedAt, want.FinishedAt)
	}
	if len(got.Archives) != 2 {
		t.Fatalf("got %d archives, want 2", len(got.Archives))
	}

	chat := got.Archives[0]
	if chat.Name != "Chat 1.zip" || chat.Status != types.ArchiveExtracted || chat.Skipped != 1 {
		t.Errorf("first archive = %+v", chat)
	}
	if len(chat.Outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(chat.Outputs))
	}
	if chat.Outputs[1].Entry != "media/photo.jpg" || chat.Outputs[1].Size != 2048 || !chat.Outputs[1].Overwrote {
		t.Errorf("second output = %+v", chat.Outputs[1])
	}

	broken := got.Archives[1]
	if broken.Status != types.ArchiveInvalid || broken.Error == "" || len(broken.Outputs) != 0 {
		t.Errorf("second archive = %+v", broken)
	}
}

func TestRun_NotFound(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.Run(context.Background(), 42)
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
}

func TestRuns_NewestFirstWithLimit(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	var ids []int64
	for _, dest := range []string{"out-a", "out-b", "out-c"} {
		id, err := store.Record(ctx, sampleResult(dest))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	runs, err := store.Runs(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != ids[2] || runs[0].DestDir != "out-c" {
		t.Errorf("newest run = %+v, want id %d out-c", runs[0], ids[2])
	}
	if runs[1].ID != ids[1] {
		t.Errorf("second run id = %d, want %d", runs[1].ID, ids[1])
	}

	all, err := store.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("default limit returned %d runs, want 3", len(all))
	}
}

func TestRecord_EmptyBatch(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	id, err := store.Record(ctx, types.BatchResult{SourceDir: "src", DestDir: "dst"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Run(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Total() != 0 || len(got.Archives) != 0 || !got.StartedAt.IsZero() {
		t.Errorf("empty run = %+v", got)
	}
}

func TestExport(t *testing.T) {
	store, tmpDir := testStore(t)
	ctx := context.Background()

	id, err := store.Record(ctx, sampleResult("out"))
	if err != nil {
		t.Fatal(err)
	}

	yamlPath := filepath.Join(tmpDir, "exports", "run.yaml")
	if err := store.ExportYAML(ctx, id, yamlPath); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML types.BatchResult
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatalf("parsing YAML export: %v", err)
	}
	if len(fromYAML.Archives) != 2 || fromYAML.Archives[0].Outputs[0].Entry != "_chat.txt" {
		t.Errorf("YAML export = %+v", fromYAML)
	}

	jsonPath := filepath.Join(tmpDir, "exports", "run.json")
	if err := store.ExportJSON(ctx, id, jsonPath); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON types.BatchResult
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("parsing JSON export: %v", err)
	}
	if fromJSON.Files != 2 || fromJSON.Archives[1].Status != types.ArchiveInvalid {
		t.Errorf("JSON export = %+v", fromJSON)
	}
}

func TestExport_UnknownRun(t *testing.T) {
	store, tmpDir := testStore(t)
	path := filepath.Join(tmpDir, "missing.yaml")
	if err := store.ExportYAML(context.Background(), 7, path); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("export file should not be written for an unknown run")
	}
}
