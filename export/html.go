package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/orian/docpad/models"
)

// =============================================================================
// HTML RENDERER
// =============================================================================

// HTMLRenderer renders blocks as a standalone HTML page with syntax
// highlighted code.
type HTMLRenderer struct {
	settings models.ExportSettings
}

// NewHTMLRenderer creates a new HTML renderer.
func NewHTMLRenderer(settings models.ExportSettings) *HTMLRenderer {
	return &HTMLRenderer{settings: settings}
}

func (r *HTMLRenderer) FileExtension() string { return models.ExportHTML.FileExtension() }

func (r *HTMLRenderer) MimeType() string { return models.ExportHTML.MimeType() }

// htmlItem is the template view of one block.
type htmlItem struct {
	Kind   string
	Level  int
	Text   string
	Code   template.HTML
	Src    template.URL
	Alt    string
	Width  float64
	Height float64
}

var htmlPage = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 10pt; margin: 36pt; max-width: 540pt; }
h1 { font-size: 18pt; }
h2 { font-size: 14pt; margin-top: 12pt; }
p { margin: 0 0 2pt 0; white-space: pre-wrap; }
pre { font-family: Courier, monospace; font-size: {{.CodeFontSize}}pt; line-height: {{.CodeLeading}}pt; margin-left: {{.CodeIndent}}pt; padding: 4pt; }
img { display: block; }
</style>
</head>
<body>
{{- range .Items}}
{{- if eq .Kind "heading"}}
{{- if eq .Level 1}}
<h1>{{.Text}}</h1>
{{- else}}
<h2>{{.Text}}</h2>
{{- end}}
{{- else if eq .Kind "paragraph"}}
<p>{{.Text}}</p>
{{- else if eq .Kind "code"}}
{{.Code}}
{{- else if eq .Kind "image"}}
<img src="{{.Src}}" alt="{{.Alt}}" width="{{.Width}}" height="{{.Height}}">
{{- else if eq .Kind "spacer"}}
<div style="height: {{.Height}}pt"></div>
{{- end}}
{{- end}}
</body>
</html>
`))

func (r *HTMLRenderer) Render(blocks []Block) ([]byte, error) {
	items := make([]htmlItem, 0, len(blocks))
	for _, b := range blocks {
		switch b := b.(type) {
		case Heading:
			items = append(items, htmlItem{Kind: "heading", Level: b.Level, Text: b.Text})
		case Paragraph:
			items = append(items, htmlItem{Kind: "paragraph", Text: b.Text})
		case Preformatted:
			code, err := highlightCode(strings.Join(b.Lines, "\n"), b.Language)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", models.ErrRenderFailure, err)
			}
			items = append(items, htmlItem{Kind: "code", Code: code})
		case ImageBlock:
			items = append(items, htmlItem{
				Kind:   "image",
				Src:    template.URL(imageSource(b)),
				Alt:    imageAlt(b),
				Width:  b.Width,
				Height: b.Height,
			})
		case Spacer:
			items = append(items, htmlItem{Kind: "spacer", Height: b.Height})
		}
	}

	data := struct {
		Title        string
		CodeFontSize float64
		CodeLeading  float64
		CodeIndent   float64
		Items        []htmlItem
	}{
		Title:        r.settings.Title,
		CodeFontSize: r.settings.CodeFontSize,
		CodeLeading:  r.settings.CodeLeading,
		CodeIndent:   r.settings.CodeIndent,
		Items:        items,
	}

	var buf bytes.Buffer
	if err := htmlPage.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

// highlightCode renders code as an inline-styled <pre> block using chroma.
func highlightCode(code, language string) (template.HTML, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(tabWidth))

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
