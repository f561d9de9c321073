// Package export turns annotation snapshots into documents.
//
// Export runs in two steps. BuildBlocks walks a snapshot and produces a flat,
// format-independent sequence of blocks (headings, paragraphs, preformatted
// code, images, spacers). A Renderer then serializes that sequence into PDF,
// Markdown or HTML bytes.
//
// # Usage
//
//	snap, _ := store.Snapshot()
//	pdf, err := export.ExportPDF(snap, models.SelectAll(), models.DefaultExportSettings())
//	if errors.Is(err, models.ErrEmptySelection) {
//	    // nothing to export
//	}
package export

import (
	"fmt"
	"time"

	"github.com/orian/docpad/models"
)

// =============================================================================
// RENDERER INTERFACE
// =============================================================================

// Renderer serializes a block sequence into a document.
type Renderer interface {
	// Render converts blocks to the target format. Failures wrap
	// models.ErrRenderFailure and return no bytes.
	Render(blocks []Block) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".pdf").
	FileExtension() string

	// MimeType returns the MIME type for the rendered format.
	MimeType() string
}

// NewRenderer returns the renderer for format.
//
// Returns an error wrapping models.ErrNotImplemented for unknown formats.
func NewRenderer(format models.ExportFormat, settings models.ExportSettings) (Renderer, error) {
	switch format {
	case models.ExportPDF:
		return NewPDFRenderer(settings), nil
	case models.ExportMarkdown:
		return NewMarkdownRenderer(settings), nil
	case models.ExportHTML:
		return NewHTMLRenderer(settings), nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrNotImplemented, format)
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Export builds the document for the selected versions and renders it.
func Export(snap *models.Snapshot, sel models.Selector, format models.ExportFormat, settings models.ExportSettings) ([]byte, error) {
	renderer, err := NewRenderer(format, settings)
	if err != nil {
		return nil, err
	}
	blocks, err := BuildBlocks(snap, sel, settings)
	if err != nil {
		return nil, err
	}
	return renderer.Render(blocks)
}

// ExportPDF exports to PDF.
func ExportPDF(snap *models.Snapshot, sel models.Selector, settings models.ExportSettings) ([]byte, error) {
	return Export(snap, sel, models.ExportPDF, settings)
}

// ExportMarkdown exports to Markdown.
func ExportMarkdown(snap *models.Snapshot, sel models.Selector, settings models.ExportSettings) ([]byte, error) {
	return Export(snap, sel, models.ExportMarkdown, settings)
}

// ExportHTML exports to HTML.
func ExportHTML(snap *models.Snapshot, sel models.Selector, settings models.ExportSettings) ([]byte, error) {
	return Export(snap, sel, models.ExportHTML, settings)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
