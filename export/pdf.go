package export

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/go-pdf/fpdf"
	"github.com/orian/docpad/models"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// =============================================================================
// PDF RENDERER
// =============================================================================

// Text styles in points, matching a classic report stylesheet.
const (
	heading1Size    = 18
	heading1Leading = 22
	heading2Size    = 14
	heading2Leading = 18
	heading2Before  = 12
	headingAfter    = 6
	bodySize        = 10
	bodyLeading     = 12
)

// Embedded UTF-8 font families. The core PDF fonts only cover cp1252.
const (
	bodyFont = "Go"
	codeFont = "GoMono"
)

// registerFonts embeds the Go fonts so any UTF-8 text keeps its code points.
func registerFonts(pdf *fpdf.Fpdf) {
	pdf.AddUTF8FontFromBytes(bodyFont, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(bodyFont, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(codeFont, "", gomono.TTF)
}

// PDFRenderer lays blocks out on pages with the fpdf engine.
type PDFRenderer struct {
	settings models.ExportSettings
}

// NewPDFRenderer creates a new PDF renderer.
func NewPDFRenderer(settings models.ExportSettings) *PDFRenderer {
	return &PDFRenderer{settings: settings}
}

func (r *PDFRenderer) FileExtension() string { return models.ExportPDF.FileExtension() }

func (r *PDFRenderer) MimeType() string { return models.ExportPDF.MimeType() }

// Render lays out every block and serializes the document into memory. The
// bytes are only returned once the whole document was written without error.
func (r *PDFRenderer) Render(blocks []Block) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%w: %v", models.ErrRenderFailure, rec)
		}
	}()

	s := r.settings
	pdf := fpdf.New("P", "pt", s.PageSize, "")
	pdf.SetMargins(s.LeftMargin, s.TopMargin, s.RightMargin)
	pdf.SetAutoPageBreak(true, s.BottomMargin)
	pdf.SetCompression(s.Compress)
	pdf.SetTitle(s.Title, true)
	pdf.SetCreator("docpad", true)
	registerFonts(pdf)

	pdf.AddPage()
	for i, b := range blocks {
		switch b := b.(type) {
		case Heading:
			r.heading(pdf, b)
		case Paragraph:
			pdf.SetFont(bodyFont, "", bodySize)
			pdf.MultiCell(0, bodyLeading, b.Text, "", "L", false)
		case Preformatted:
			r.preformatted(pdf, b)
		case ImageBlock:
			r.image(pdf, i, b)
		case Spacer:
			pdf.Ln(b.Height)
		}
		if pdf.Err() {
			break
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", models.ErrRenderFailure, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) heading(pdf *fpdf.Fpdf, h Heading) {
	size, leading := float64(heading1Size), float64(heading1Leading)
	if h.Level > 1 {
		size, leading = heading2Size, heading2Leading
		pdf.Ln(heading2Before)
	}
	pdf.SetFont(bodyFont, "B", size)
	pdf.MultiCell(0, leading, h.Text, "", "L", false)
	pdf.Ln(headingAfter)
}

// preformatted writes one cell per pre-wrapped line in the monospace font,
// indented from the left margin.
func (r *PDFRenderer) preformatted(pdf *fpdf.Fpdf, p Preformatted) {
	s := r.settings
	pdf.SetFont(codeFont, "", s.CodeFontSize)
	for _, line := range p.Lines {
		pdf.SetX(s.LeftMargin + s.CodeIndent)
		pdf.CellFormat(0, s.CodeLeading, line, "", 1, "L", false, 0, "")
	}
}

// image embeds img stretched to its box at the current position, breaking
// the page first if it would not fit.
func (r *PDFRenderer) image(pdf *fpdf.Fpdf, index int, img ImageBlock) {
	data, imageType, err := embeddableImage(img)
	if err != nil {
		slog.Debug("skipping image that cannot be embedded", "name", img.Name, "error", err)
		return
	}

	name := fmt.Sprintf("image-%d", index)
	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() {
		return
	}
	pdf.ImageOptions(name, -1, 0, img.Width, img.Height, true, opts, 0, "")
}
