package export

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"regexp"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/orian/docpad/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uncompressed returns default settings with stream compression off so the
// content streams can be inspected as text.
func uncompressed() models.ExportSettings {
	s := models.DefaultExportSettings()
	s.Compress = false
	return s
}

// pdfText is s as it appears inside a text-showing operator of an embedded
// UTF-8 font: UTF-16BE with the string delimiters escaped.
func pdfText(s string) string {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune(s)) {
		b.WriteByte(byte(u >> 8))
		b.WriteByte(byte(u))
	}
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "\r", `\r`).Replace(b.String())
}

func TestExportPDFRoundTrip(t *testing.T) {
	out, err := ExportPDF(roundTripSnapshot(t), models.ParseSelector("1.0"), uncompressed())
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	content := string(out)
	assert.Contains(t, content, pdfText("Version: 1.0"))
	assert.Contains(t, content, pdfText("Links:"))
	assert.Contains(t, content, pdfText("- http://example.com"))
	assert.Contains(t, content, pdfText("Code:"))
	assert.Contains(t, content, pdfText("print('hi')"))
	assert.Contains(t, content, pdfText("Images:"))

	// The image is drawn with a 200x200 transformation matrix.
	drawn := regexp.MustCompile(`q 200(\.0+)? 0 0 200(\.0+)? `)
	assert.Len(t, drawn.FindAllString(content, -1), 1)
}

func TestExportPDFCompressed(t *testing.T) {
	out, err := ExportPDF(roundTripSnapshot(t), models.SelectAll(), models.DefaultExportSettings())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestExportPDFLongCode(t *testing.T) {
	snap := &models.Snapshot{Versions: []models.Version{{
		ID:    "wide",
		Codes: []string{strings.Repeat("a", 200)},
	}}}

	out, err := ExportPDF(snap, models.SelectAll(), uncompressed())
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "("+pdfText(strings.Repeat("a", 65))+")")
	assert.NotContains(t, content, pdfText(strings.Repeat("a", 66)))
}

func TestExportPDFKeepsNonLatinText(t *testing.T) {
	snap := &models.Snapshot{Versions: []models.Version{{
		ID:    "版本-1",
		Texts: []string{"Привет мир"},
		Codes: []string{"print('日本語')"},
	}}}

	out, err := ExportPDF(snap, models.SelectAll(), uncompressed())
	require.NoError(t, err)

	content := string(out)
	for _, want := range []string{"Version: 版本-1", "- Привет мир", "print('日本語')"} {
		assert.Contains(t, content, "("+pdfText(want)+")", want)
	}
	assert.Contains(t, content, "/FontFile2")
	assert.NotContains(t, content, "/BaseFont /Helvetica")
}

func TestExportPDFManyPages(t *testing.T) {
	v := models.Version{ID: "big"}
	for i := 0; i < 300; i++ {
		v.Texts = append(v.Texts, "a note that keeps the page busy")
	}
	v.Images = []models.ImageRef{{ID: "i", Data: pngBytes(t, 5, 5)}}

	out, err := ExportPDF(&models.Snapshot{Versions: []models.Version{v}}, models.SelectAll(), uncompressed())
	require.NoError(t, err)
	assert.Greater(t, strings.Count(string(out), "/Type /Page\n"), 1)
}

func TestExportPDFEmbedsJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	snap := &models.Snapshot{Versions: []models.Version{{
		ID:     "v",
		Images: []models.ImageRef{{ID: "j", Name: "photo.jpg", Data: buf.Bytes()}},
	}}}

	out, err := ExportPDF(snap, models.SelectAll(), uncompressed())
	require.NoError(t, err)
	assert.Contains(t, string(out), "/DCTDecode")
}

func TestExportPDFEmptySelection(t *testing.T) {
	snap := &models.Snapshot{Versions: []models.Version{{ID: "1.0", Texts: []string{"x"}}}}

	out, err := ExportPDF(snap, models.ParseSelector("missing"), models.DefaultExportSettings())
	assert.ErrorIs(t, err, models.ErrEmptySelection)
	assert.Nil(t, out)
}

func TestPDFRendererFailure(t *testing.T) {
	settings := models.DefaultExportSettings()
	settings.PageSize = "NotAPageSize"

	out, err := NewPDFRenderer(settings).Render([]Block{Heading{Level: 1, Text: "x"}})
	assert.ErrorIs(t, err, models.ErrRenderFailure)
	assert.Nil(t, out)
}

func TestFitImage(t *testing.T) {
	big := image.NewRGBA(image.Rect(0, 0, 1000, 500))
	fitted := fitImage(big, 400, 400)
	assert.Equal(t, image.Rect(0, 0, 400, 400), fitted.Bounds())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, small, fitImage(small, 400, 400))
}

func TestNewRendererUnknownFormat(t *testing.T) {
	_, err := NewRenderer(models.ExportFormat("DOCX"), models.DefaultExportSettings())
	assert.ErrorIs(t, err, models.ErrNotImplemented)

	_, err = Export(roundTripSnapshot(t), models.SelectAll(), models.ExportFormat("DOCX"), models.DefaultExportSettings())
	assert.ErrorIs(t, err, models.ErrNotImplemented)
}
