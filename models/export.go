package models

import (
	"fmt"
	"strings"
)

// ExportFormat represents the document format an export is serialized to.
type ExportFormat string

const (
	// ExportPDF renders the document through the PDF layout engine.
	ExportPDF ExportFormat = "PDF"

	// ExportMarkdown renders the document as Markdown text.
	ExportMarkdown ExportFormat = "MARKDOWN"

	// ExportHTML renders the document as a standalone HTML page.
	ExportHTML ExportFormat = "HTML"
)

// ParseExportFormat parses a user-supplied format name. Matching is case
// insensitive and accepts common aliases ("md", "htm").
//
// Returns an error wrapping ErrNotImplemented for unknown formats.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return ExportPDF, nil
	case "markdown", "md":
		return ExportMarkdown, nil
	case "html", "htm":
		return ExportHTML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNotImplemented, s)
}

// FileExtension returns the file extension including the leading dot.
func (f ExportFormat) FileExtension() string {
	switch f {
	case ExportPDF:
		return ".pdf"
	case ExportMarkdown:
		return ".md"
	case ExportHTML:
		return ".html"
	}
	return ""
}

// MimeType returns the MIME type offered with the downloaded artifact.
func (f ExportFormat) MimeType() string {
	switch f {
	case ExportPDF:
		return "application/pdf"
	case ExportMarkdown:
		return "text/markdown; charset=utf-8"
	case ExportHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// ExportSettings contains layout options shared by every export format.
// Dimensions are in PDF points.
type ExportSettings struct {
	// Page layout (PDF only)
	PageSize     string  `json:"pageSize" mapstructure:"page_size" yaml:"page_size"`
	LeftMargin   float64 `json:"leftMargin" mapstructure:"left_margin" yaml:"left_margin"`
	RightMargin  float64 `json:"rightMargin" mapstructure:"right_margin" yaml:"right_margin"`
	TopMargin    float64 `json:"topMargin" mapstructure:"top_margin" yaml:"top_margin"`
	BottomMargin float64 `json:"bottomMargin" mapstructure:"bottom_margin" yaml:"bottom_margin"`

	// Code blocks
	CodeWrapWidth int     `json:"codeWrapWidth" mapstructure:"code_wrap_width" yaml:"code_wrap_width"` // Max columns per line
	CodeLanguage  string  `json:"codeLanguage" mapstructure:"code_language" yaml:"code_language"`      // Language tag for every snippet
	CodeFontSize  float64 `json:"codeFontSize" mapstructure:"code_font_size" yaml:"code_font_size"`
	CodeLeading   float64 `json:"codeLeading" mapstructure:"code_leading" yaml:"code_leading"`
	CodeIndent    float64 `json:"codeIndent" mapstructure:"code_indent" yaml:"code_indent"`

	// Images are stretched to this box; aspect ratio is not preserved.
	ImageWidth  float64 `json:"imageWidth" mapstructure:"image_width" yaml:"image_width"`
	ImageHeight float64 `json:"imageHeight" mapstructure:"image_height" yaml:"image_height"`

	// SpacerHeight separates successive code and image entries.
	SpacerHeight float64 `json:"spacerHeight" mapstructure:"spacer_height" yaml:"spacer_height"`

	// Compress enables stream compression in PDF output.
	Compress bool `json:"compress" mapstructure:"compress" yaml:"compress"`

	// FileName is the download name without extension.
	FileName string `json:"fileName" mapstructure:"file_name" yaml:"file_name"`

	// Title is written into document metadata and the HTML <title>.
	Title string `json:"title" mapstructure:"title" yaml:"title"`
}

// DefaultExportSettings returns US Letter with 36pt side margins, code wrapped
// at 65 columns and images boxed at 200x200.
func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		PageSize:      "Letter",
		LeftMargin:    36,
		RightMargin:   36,
		TopMargin:     72,
		BottomMargin:  72,
		CodeWrapWidth: 65,
		CodeLanguage:  "python",
		CodeFontSize:  8,
		CodeLeading:   8,
		CodeIndent:    10,
		ImageWidth:    200,
		ImageHeight:   200,
		SpacerHeight:  10,
		Compress:      true,
		FileName:      "your_file",
		Title:         "Documentation",
	}
}

// DownloadName returns the artifact filename for the given format.
func (s ExportSettings) DownloadName(f ExportFormat) string {
	name := s.FileName
	if name == "" {
		name = "your_file"
	}
	return name + f.FileExtension()
}

// ExportConfig represents a single export format with its enabled state.
type ExportConfig struct {
	// Format is the document format.
	Format ExportFormat `json:"format"`

	// Enabled indicates if exports in this format are served. Disabled
	// formats fail with ErrNotImplemented.
	Enabled bool `json:"enabled"`
}

// GetDefaultExportConfigs returns the default set of export formats.
func GetDefaultExportConfigs() []ExportConfig {
	return []ExportConfig{
		{Format: ExportPDF, Enabled: true},
		{Format: ExportMarkdown, Enabled: true},
		{Format: ExportHTML, Enabled: true},
	}
}
