package export

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const tabWidth = 4

// WrapCode splits code into display lines no wider than width columns.
// Existing line breaks are kept, tabs expand to the next multiple of four
// and longer lines are hard-wrapped. A width below one disables wrapping.
func WrapCode(code string, width int) []string {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(code, "\n") {
		line = expandTabs(line)
		if width < 1 || runewidth.StringWidth(line) <= width {
			out = append(out, line)
			continue
		}
		out = append(out, hardWrap(line, width)...)
	}
	return out
}

// hardWrap cuts line into chunks of at most width display columns. A rune
// wider than width still gets its own chunk.
func hardWrap(line string, width int) []string {
	var (
		chunks []string
		cur    strings.Builder
		curW   int
	)
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if curW+w > width && curW > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curW = 0
		}
		cur.WriteRune(r)
		curW += w
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}
