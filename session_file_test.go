package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/orian/docpad/models"
	"github.com/orian/docpad/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSession = `
versions:
  - id: "1.0"
    links:
      - http://example.com
    code:
      - print('hi')
    images:
      - shot.png
      - missing.png
    files:
      - trace.log
      - gone.txt
    interpreter:
      version: "3.11.4"
      created_at: 2024-05-01T10:00:00Z
  - id: "2.0"
    texts:
      - second release
    terminal:
      - "$ make test"
`

func TestLoadSessionFileApply(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shot.png"), testPNG(t, 10, 10), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trace.log"), []byte("panic: boom"), 0644))
	path := filepath.Join(dir, "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSession), 0644))

	sf, err := LoadSessionFile(path)
	require.NoError(t, err)
	require.Len(t, sf.Versions, 2)

	s := store.NewMemoryStore(nil)
	err = sf.Apply(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.png")
	assert.Contains(t, err.Error(), "gone.txt")

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "2.0"}, snap.IDs())

	v1, _ := snap.Lookup("1.0")
	assert.Equal(t, []string{"http://example.com"}, v1.Links)
	assert.Equal(t, []string{"print('hi')"}, v1.Codes)
	require.Len(t, v1.Images, 1)
	assert.Equal(t, "shot.png", v1.Images[0].Name)
	require.Len(t, v1.Files, 1)
	assert.Equal(t, "trace.log", v1.Files[0].Name)
	assert.Equal(t, []byte("panic: boom"), v1.Files[0].Data)
	require.NotNil(t, v1.Interpreter)
	assert.Equal(t, "3.11.4", v1.Interpreter.Version)
	assert.True(t, v1.Interpreter.CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	v2, _ := snap.Lookup("2.0")
	assert.Equal(t, []string{"second release"}, v2.Texts)
	assert.Equal(t, []string{"$ make test"}, v2.TerminalLogs)
}

func TestParseSessionFileErrors(t *testing.T) {
	_, err := ParseSessionFile([]byte("versions: [{links: [a]}]"))
	assert.ErrorContains(t, err, "id is required")

	_, err = ParseSessionFile([]byte("versions: {"))
	assert.Error(t, err)
}

func TestRunExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shot.png"), testPNG(t, 10, 10), 0644))
	input := filepath.Join(dir, "session.yaml")
	require.NoError(t, os.WriteFile(input, []byte(testSession), 0644))
	output := filepath.Join(dir, "out.md")

	err := runExport(context.Background(), DefaultConfig(), input, "markdown", "2.0", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Version: 2.0")
	assert.False(t, strings.Contains(string(data), "Version: 1.0"))

	output = filepath.Join(dir, "v1.md")
	require.NoError(t, runExport(context.Background(), DefaultConfig(), input, "markdown", "1.0", output))
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Files:\n\n- trace.log\n")

	err = runExport(context.Background(), DefaultConfig(), input, "pdf", "9.9", filepath.Join(dir, "none.pdf"))
	assert.ErrorIs(t, err, models.ErrEmptySelection)
	_, statErr := os.Stat(filepath.Join(dir, "none.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}
