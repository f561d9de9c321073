package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orian/docpad/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// mdOutline parses Markdown and summarizes its structure.
type mdOutline struct {
	headings    []string
	lists       int
	listItems   int
	blockquotes int
	hardBreaks  int
	codes       []string
	languages   []string
	images      []string
}

func outline(t *testing.T, src []byte) mdOutline {
	t.Helper()
	var o mdOutline
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			o.headings = append(o.headings, fmt.Sprintf("%d:%s", n.Level, n.Text(src)))
		case *ast.List:
			o.lists++
		case *ast.ListItem:
			o.listItems++
		case *ast.Blockquote:
			o.blockquotes++
		case *ast.Text:
			if n.HardLineBreak() {
				o.hardBreaks++
			}
		case *ast.FencedCodeBlock:
			var sb strings.Builder
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(src))
			}
			o.codes = append(o.codes, sb.String())
			o.languages = append(o.languages, string(n.Language(src)))
		case *ast.Image:
			o.images = append(o.images, string(n.Destination))
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return o
}

func TestExportMarkdownRoundTrip(t *testing.T) {
	out, err := ExportMarkdown(roundTripSnapshot(t), models.ParseSelector("1.0"), models.DefaultExportSettings())
	require.NoError(t, err)

	o := outline(t, out)
	assert.Equal(t, []string{"1:Version: 1.0", "2:Links:", "2:Images:", "2:Code:"}, o.headings)
	assert.Equal(t, 1, o.listItems)
	assert.Equal(t, []string{"print('hi')\n"}, o.codes)
	assert.Equal(t, []string{"python"}, o.languages)
	require.Len(t, o.images, 1)
	assert.True(t, strings.HasPrefix(o.images[0], "data:image/png;base64,"))
}

func TestExportMarkdownPersistedImageUsesPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 3, 3), 0644))

	snap := &models.Snapshot{Versions: []models.Version{{
		ID:     "v",
		Images: []models.ImageRef{{ID: "i", Name: "shot.png", Path: path}},
	}}}
	out, err := ExportMarkdown(snap, models.SelectAll(), models.DefaultExportSettings())
	require.NoError(t, err)

	o := outline(t, out)
	assert.Equal(t, []string{path}, o.images)
}

func TestExportMarkdownEscapesAndFences(t *testing.T) {
	snap := &models.Snapshot{Versions: []models.Version{{
		ID:    "v",
		Texts: []string{"# not a heading", "*not emphasis*"},
		Codes: []string{"echo ```\nnested"},
	}}}
	out, err := ExportMarkdown(snap, models.SelectAll(), models.DefaultExportSettings())
	require.NoError(t, err)

	o := outline(t, out)
	assert.Equal(t, []string{"1:Version: v", "2:Text:", "2:Code:"}, o.headings)
	assert.Equal(t, 2, o.listItems)
	assert.Equal(t, []string{"echo ```\nnested\n"}, o.codes)
}

func TestExportMarkdownBlockMarkersStayText(t *testing.T) {
	snap := &models.Snapshot{Versions: []models.Version{{
		ID: "v",
		Texts: []string{
			"1. step",
			"> quote",
			"+ plus",
			"2) paren",
			"title\n===",
		},
		TerminalLogs: []string{"$ make test\n- FAIL pkg\n---\nok\n"},
	}}}
	out, err := ExportMarkdown(snap, models.SelectAll(), models.DefaultExportSettings())
	require.NoError(t, err)

	o := outline(t, out)
	assert.Equal(t, []string{"1:Version: v", "2:Text:", "2:Terminal Logs:"}, o.headings)
	assert.Equal(t, 2, o.lists)
	assert.Equal(t, 6, o.listItems)
	assert.Zero(t, o.blockquotes)
	// "title/===" and the four terminal lines keep their breaks.
	assert.Equal(t, 4, o.hardBreaks)

	var html bytes.Buffer
	require.NoError(t, goldmark.Convert(out, &html))
	for _, want := range []string{
		"<li>1. step</li>", "<li>&gt; quote</li>", "<li>+ plus</li>", "<li>2) paren</li>",
		"title<br>\n===", "$ make test<br>\n- FAIL pkg<br>\n---<br>\nok</li>",
	} {
		assert.Contains(t, html.String(), want)
	}
}

func TestMarkdownMultiVersionOrder(t *testing.T) {
	snap := &models.Snapshot{Versions: []models.Version{
		{ID: "A", Links: []string{"http://a"}},
		{ID: "B", Links: []string{"http://b"}},
	}}
	out, err := ExportMarkdown(snap, models.SelectAll(), models.DefaultExportSettings())
	require.NoError(t, err)

	o := outline(t, out)
	assert.Equal(t, []string{"1:Version: A", "2:Links:", "1:Version: B", "2:Links:"}, o.headings)
}
