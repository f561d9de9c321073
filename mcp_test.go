package main

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/orian/docpad/models"
	"github.com/orian/docpad/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMCPTools(t *testing.T) (*MCPTools, models.Store) {
	t.Helper()
	s := store.NewMemoryStore(nil)
	executor := NewExportExecutor(s, models.GetDefaultExportConfigs(), models.DefaultExportSettings())
	return NewMCPTools(s, executor), s
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestMCPAnnotationTools(t *testing.T) {
	tools, s := newTestMCPTools(t)

	_, isErr := callTool(t, tools.ensureVersionHandler, map[string]any{"version": "1.0"})
	assert.False(t, isErr)

	for _, kind := range []models.AnnotationKind{models.KindLink, models.KindText, models.KindCode, models.KindTerminal} {
		_, isErr := callTool(t, tools.appendHandler(kind), map[string]any{"version": "1.0", "value": string(kind)})
		assert.False(t, isErr, kind)
	}
	_, isErr = callTool(t, tools.appendHandler(models.KindLink), map[string]any{"version": "1.0"})
	assert.True(t, isErr)

	_, isErr = callTool(t, tools.setInterpreterHandler, map[string]any{"version": "1.0", "interpreter": "3.12.1"})
	assert.False(t, isErr)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	v, ok := snap.Lookup("1.0")
	require.True(t, ok)
	assert.Equal(t, []string{"links"}, v.Links)
	assert.Equal(t, []string{"terminal"}, v.TerminalLogs)
	assert.Equal(t, "3.12.1", v.Interpreter.Version)

	text, isErr := callTool(t, tools.listVersionsHandler, map[string]any{})
	assert.False(t, isErr)
	assert.Contains(t, text, "- 1.0")
}

func TestMCPAppendImage(t *testing.T) {
	tools, s := newTestMCPTools(t)

	text, isErr := callTool(t, tools.appendImageHandler, map[string]any{
		"version": "1.0",
		"name":    "shot.png",
		"data":    base64.StdEncoding.EncodeToString(testPNG(t, 10, 10)),
	})
	assert.False(t, isErr)
	assert.Contains(t, text, "10x10")

	_, isErr = callTool(t, tools.appendImageHandler, map[string]any{
		"version": "1.0",
		"name":    "bad.png",
		"data":    base64.StdEncoding.EncodeToString([]byte("nope")),
	})
	assert.True(t, isErr)

	_, isErr = callTool(t, tools.appendImageHandler, map[string]any{"version": "1.0", "data": "%%%"})
	assert.True(t, isErr)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	v, _ := snap.Lookup("1.0")
	assert.Len(t, v.Images, 1)
}

func TestMCPAppendFile(t *testing.T) {
	tools, s := newTestMCPTools(t)

	text, isErr := callTool(t, tools.appendFileHandler, map[string]any{
		"version": "1.0",
		"name":    "notes.txt",
		"data":    base64.StdEncoding.EncodeToString([]byte("not an image")),
	})
	assert.False(t, isErr)
	assert.Contains(t, text, "12 bytes")

	_, isErr = callTool(t, tools.appendFileHandler, map[string]any{"version": "1.0", "data": "%%%"})
	assert.True(t, isErr)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	v, _ := snap.Lookup("1.0")
	require.Len(t, v.Files, 1)
	assert.Equal(t, "notes.txt", v.Files[0].Name)

	text, isErr = callTool(t, tools.exportHandler, map[string]any{"format": "markdown"})
	assert.False(t, isErr)
	assert.Contains(t, text, "## Files:")
	assert.Contains(t, text, "- notes.txt")
}

func TestMCPExportPDFWithoutOutput(t *testing.T) {
	tools, _ := newTestMCPTools(t)

	// Nothing is stored, so reaching the exporter would report an empty selection.
	text, isErr := callTool(t, tools.exportHandler, map[string]any{"format": "pdf"})
	assert.True(t, isErr)
	assert.Contains(t, text, "requires an output path")
	assert.NotContains(t, text, "Export failed")
}

func TestMCPExport(t *testing.T) {
	tools, s := newTestMCPTools(t)
	require.NoError(t, s.AppendText("1.0", "a note"))

	text, isErr := callTool(t, tools.exportHandler, map[string]any{"format": "markdown"})
	assert.False(t, isErr)
	assert.Contains(t, text, "Version: 1.0")

	_, isErr = callTool(t, tools.exportHandler, map[string]any{"format": "pdf"})
	assert.True(t, isErr)

	out := filepath.Join(t.TempDir(), "doc.pdf")
	_, isErr = callTool(t, tools.exportHandler, map[string]any{"format": "pdf", "output": out})
	assert.False(t, isErr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	text, isErr = callTool(t, tools.exportHandler, map[string]any{"version": "missing"})
	assert.True(t, isErr)
	assert.Contains(t, text, "Export failed")
}

func TestMCPServerRegistersTools(t *testing.T) {
	tools, _ := newTestMCPTools(t)
	srv := tools.NewMCPServer("test")

	names := make([]string, 0)
	for name := range srv.ListTools() {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{
		"ensure_version", "append_link", "append_text", "append_code", "append_terminal_log",
		"set_interpreter_info", "append_image", "append_file", "list_versions", "export",
	}, names)
}
