package export

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/orian/docpad/models"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders blocks as CommonMark.
type MarkdownRenderer struct {
	settings models.ExportSettings
}

// NewMarkdownRenderer creates a new Markdown renderer.
func NewMarkdownRenderer(settings models.ExportSettings) *MarkdownRenderer {
	return &MarkdownRenderer{settings: settings}
}

func (r *MarkdownRenderer) FileExtension() string { return models.ExportMarkdown.FileExtension() }

func (r *MarkdownRenderer) MimeType() string { return models.ExportMarkdown.MimeType() }

func (r *MarkdownRenderer) Render(blocks []Block) ([]byte, error) {
	var sb strings.Builder

	// Bullets of one section are kept together as a single list.
	inList := false
	endList := func() {
		if inList {
			sb.WriteString("\n")
			inList = false
		}
	}

	for _, b := range blocks {
		switch b := b.(type) {
		case Heading:
			endList()
			sb.WriteString(fmt.Sprintf("%s %s\n\n", strings.Repeat("#", max(b.Level, 1)), escapeMarkdown(singleLine(b.Text))))
		case Paragraph:
			if item, ok := strings.CutPrefix(b.Text, "- "); ok {
				// Continuation lines are indented to stay inside the item.
				sb.WriteString("- " + hardBreakLines(escapeMarkdown(item), "  ") + "\n")
				inList = true
				continue
			}
			endList()
			sb.WriteString(hardBreakLines(escapeMarkdown(b.Text), "") + "\n\n")
		case Preformatted:
			endList()
			fence := codeFence(b.Lines)
			sb.WriteString(fence + b.Language + "\n")
			for _, line := range b.Lines {
				sb.WriteString(line + "\n")
			}
			sb.WriteString(fence + "\n")
		case ImageBlock:
			endList()
			sb.WriteString(fmt.Sprintf("![%s](%s)\n", escapeMarkdown(imageAlt(b)), imageSource(b)))
		case Spacer:
			endList()
			sb.WriteString("\n")
		}
	}
	endList()

	return []byte(sb.String()), nil
}

// codeFence returns a backtick fence longer than any backtick run in lines.
func codeFence(lines []string) string {
	longest := 0
	for _, line := range lines {
		run := 0
		for _, r := range line {
			if r == '`' {
				run++
				longest = max(longest, run)
			} else {
				run = 0
			}
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

// imageSource returns the on-disk path for persisted images and a data URI
// for session-only ones.
func imageSource(img ImageBlock) string {
	if img.Path != "" {
		return filepath.ToSlash(img.Path)
	}
	return dataURI(img)
}

func dataURI(img ImageBlock) string {
	mimeType := mime.TypeByExtension("." + img.Format)
	if mimeType == "" {
		mimeType = "image/" + img.Format
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(img.Data))
}

func imageAlt(img ImageBlock) string {
	if img.Name != "" {
		return img.Name
	}
	return "image"
}

// singleLine folds embedded newlines for blocks that cannot span lines.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", " ")
}

// hardBreakLines keeps the line structure of s: lines are joined with hard
// breaks and every continuation line is prefixed with indent.
func hardBreakLines(s, indent string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
			if strings.TrimSpace(line) != "" {
				b.WriteString(indent)
			}
		}
		b.WriteString(line)
		// A trailing backslash is literal at the end of a block.
		if i+1 < len(lines) && strings.TrimSpace(line) != "" && strings.TrimSpace(lines[i+1]) != "" {
			b.WriteString("\\")
		}
	}
	return b.String()
}

var inlineEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"*", "\\*",
	"_", "\\_",
	"[", "\\[",
	"]", "\\]",
	"`", "\\`",
	"#", "\\#",
	"<", "&lt;",
)

// orderedMarker matches an ordered list marker such as "1." or "2)".
var orderedMarker = regexp.MustCompile(`^([ \t]*\d{1,9})[.)]([ \t]|$)`)

// escapeMarkdown escapes characters that would otherwise start markup,
// including block markers at the start of any line.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(inlineEscaper.Replace(s), "\n")
	for i, line := range lines {
		lines[i] = escapeLineStart(line)
	}
	return strings.Join(lines, "\n")
}

func escapeLineStart(line string) string {
	if m := orderedMarker.FindStringSubmatchIndex(line); m != nil {
		return line[:m[3]] + "\\" + line[m[3]:]
	}
	body := strings.TrimLeft(line, " \t")
	if body == "" {
		return line
	}
	switch body[0] {
	case '>', '-', '+', '=', '~', '|':
		return line[:len(line)-len(body)] + "\\" + body
	}
	return line
}
