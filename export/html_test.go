package export

import (
	"strings"
	"testing"

	"github.com/orian/docpad/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHTMLRoundTrip(t *testing.T) {
	out, err := ExportHTML(roundTripSnapshot(t), models.ParseSelector("1.0"), models.DefaultExportSettings())
	require.NoError(t, err)

	page := string(out)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<h1>Version: 1.0</h1>")
	assert.Contains(t, page, "<h2>Links:</h2>")
	assert.Contains(t, page, "<p>- http://example.com</p>")
	assert.Contains(t, page, `width="200" height="200"`)
	assert.Contains(t, page, `src="data:image/png;base64,`)
	assert.Equal(t, 1, strings.Count(page, "<pre"))
	assert.Contains(t, page, "print")
}

func TestExportHTMLEscapesText(t *testing.T) {
	snap := &models.Snapshot{Versions: []models.Version{{
		ID:    "<script>",
		Texts: []string{"<b>bold</b>"},
	}}}

	out, err := ExportHTML(snap, models.SelectAll(), models.DefaultExportSettings())
	require.NoError(t, err)

	page := string(out)
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.Contains(t, page, "&lt;b&gt;bold&lt;/b&gt;")
}

func TestHighlightCodeUnknownLanguage(t *testing.T) {
	code, err := highlightCode("plain text", "no-such-language")
	require.NoError(t, err)
	assert.Contains(t, string(code), "plain text")
}
