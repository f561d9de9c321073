package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orian/docpad/export"
	"github.com/orian/docpad/models"
)

// Artifact is a rendered document ready to be offered for download.
type Artifact struct {
	FileName string
	MimeType string
	Data     []byte
}

// ExportExecutor snapshots the store and renders the enabled formats.
type ExportExecutor struct {
	store    models.Store
	configs  []models.ExportConfig
	settings models.ExportSettings
}

// NewExportExecutor creates a new ExportExecutor.
func NewExportExecutor(s models.Store, configs []models.ExportConfig, settings models.ExportSettings) *ExportExecutor {
	return &ExportExecutor{store: s, configs: configs, settings: settings}
}

// Configs returns the export formats and whether each is enabled.
func (e *ExportExecutor) Configs() []models.ExportConfig {
	return e.configs
}

// Execute renders the selected versions in format. The artifact is only
// returned after the whole document rendered successfully.
func (e *ExportExecutor) Execute(ctx context.Context, format models.ExportFormat, sel models.Selector) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := getExportConfig(e.configs, format); err != nil {
		return nil, err
	}

	snap, err := e.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot store: %w", err)
	}

	start := time.Now()
	data, err := export.Export(snap, sel, format, e.settings)
	if err != nil {
		slog.Warn("export failed", "format", format, "selector", sel.String(), "error", err)
		return nil, err
	}
	slog.Info("export complete", "format", format, "selector", sel.String(),
		"bytes", len(data), "duration", time.Since(start))

	return &Artifact{
		FileName: e.settings.DownloadName(format),
		MimeType: format.MimeType(),
		Data:     data,
	}, nil
}
