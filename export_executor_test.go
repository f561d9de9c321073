package main

import (
	"context"
	"strings"
	"testing"

	"github.com/orian/docpad/models"
	"github.com/orian/docpad/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportExecutorExecute(t *testing.T) {
	s := store.NewMemoryStore(nil)
	require.NoError(t, s.AppendText("A", "first"))
	require.NoError(t, s.AppendText("B", "second"))

	settings := models.DefaultExportSettings()
	settings.FileName = "notes"
	executor := NewExportExecutor(s, models.GetDefaultExportConfigs(), settings)

	artifact, err := executor.Execute(context.Background(), models.ExportMarkdown, models.SelectAll())
	require.NoError(t, err)
	assert.Equal(t, "notes.md", artifact.FileName)
	assert.Equal(t, "text/markdown; charset=utf-8", artifact.MimeType)

	doc := string(artifact.Data)
	a := strings.Index(doc, "Version: A")
	b := strings.Index(doc, "Version: B")
	require.GreaterOrEqual(t, a, 0)
	require.GreaterOrEqual(t, b, 0)
	assert.Less(t, a, b)
}

func TestExportExecutorErrors(t *testing.T) {
	s := store.NewMemoryStore(nil)
	require.NoError(t, s.AppendText("1.0", "note"))

	configs := []models.ExportConfig{
		{Format: models.ExportPDF, Enabled: true},
		{Format: models.ExportHTML, Enabled: false},
	}
	executor := NewExportExecutor(s, configs, models.DefaultExportSettings())

	tests := []struct {
		name    string
		format  models.ExportFormat
		sel     models.Selector
		wantErr error
	}{
		{"absent version", models.ExportPDF, models.SelectVersion("2.0"), models.ErrEmptySelection},
		{"disabled format", models.ExportHTML, models.SelectAll(), models.ErrNotImplemented},
		{"unlisted format", models.ExportMarkdown, models.SelectAll(), models.ErrNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact, err := executor.Execute(context.Background(), tt.format, tt.sel)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, artifact)
		})
	}
}

func TestExportExecutorCanceledContext(t *testing.T) {
	executor := NewExportExecutor(store.NewMemoryStore(nil), models.GetDefaultExportConfigs(), models.DefaultExportSettings())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executor.Execute(ctx, models.ExportPDF, models.SelectAll())
	assert.ErrorIs(t, err, context.Canceled)
}
