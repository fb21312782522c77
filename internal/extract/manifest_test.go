// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/zipflat/pkg/types"
)

func TestWriteManifest(t *testing.T) {
	src, dest := setupDirs(t)
	writeZip(t, src, "Chat 1.zip", []zipEntry{
		{name: "_chat.txt", body: []byte("hi")},
		{name: "media/photo.jpg", body: []byte{1, 2, 3}},
	})
	writeFile(t, src, "broken.zip", []byte("nope"))

	var log bytes.Buffer
	result, err := ExtractBatch(types.ExtractionConfig{SourceDir: src, DestDir: dest}, &log)
	require.NoError(t, err)

	for _, name := range []string{"run.yaml", "run.yml", "run.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifests", name)
			require.NoError(t, WriteManifest(path, result))

			got, err := ReadManifest(path)
			require.NoError(t, err)
			assert.Equal(t, result.Extracted, got.Extracted)
			assert.Equal(t, result.Invalid, got.Invalid)
			assert.Equal(t, result.Files, got.Files)
			require.Len(t, got.Archives, 2)
			assert.Equal(t, "Chat 1.zip", got.Archives[0].Name)
			assert.Equal(t, types.ArchiveExtracted, got.Archives[0].Status)
			assert.Equal(t, "media/photo.jpg", got.Archives[0].Outputs[1].Entry)
			assert.Equal(t, int64(3), got.Archives[0].Outputs[1].Size)
			assert.Equal(t, types.ArchiveInvalid, got.Archives[1].Status)
		})
	}
}

func TestWriteManifest_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.txt")
	err := WriteManifest(path, types.BatchResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported manifest extension")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadManifest_Malformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.json", []byte("{not json"))
	_, err := ReadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing manifest")
}
