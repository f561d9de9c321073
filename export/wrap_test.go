package export

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func TestWrapCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		width int
		want  []string
	}{
		{
			name:  "short line untouched",
			code:  "print('hi')",
			width: 65,
			want:  []string{"print('hi')"},
		},
		{
			name:  "existing newlines kept",
			code:  "a\nb\n\nc",
			width: 65,
			want:  []string{"a", "b", "", "c"},
		},
		{
			name:  "crlf normalized",
			code:  "a\r\nb",
			width: 65,
			want:  []string{"a", "b"},
		},
		{
			name:  "hard wrap",
			code:  "abcdefghij",
			width: 4,
			want:  []string{"abcd", "efgh", "ij"},
		},
		{
			name:  "tabs expand to four columns",
			code:  "\tx\ty",
			width: 65,
			want:  []string{"    x   y"},
		},
		{
			name:  "wide runes respect display width",
			code:  "日本語日本語",
			width: 4,
			want:  []string{"日本", "語日", "本語"},
		},
		{
			name:  "zero width disables wrapping",
			code:  strings.Repeat("y", 100),
			width: 0,
			want:  []string{strings.Repeat("y", 100)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapCode(tt.code, tt.width))
		})
	}
}

func TestWrapCodeLongLine(t *testing.T) {
	line := strings.Repeat("0123456789", 20)
	lines := WrapCode(line, 65)

	assert.Len(t, lines, 4)
	for _, l := range lines {
		assert.LessOrEqual(t, runewidth.StringWidth(l), 65)
	}
	assert.Equal(t, line, strings.Join(lines, ""))
}
