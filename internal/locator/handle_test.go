// File: internal/locator/handle_test.go
package locator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTextScanPathKeepsMultibyteTextIntact(t *testing.T) {
	// 29 ASCII runes followed by CJK: a byte-wise cut at 30 would split the
	// first multi-byte rune and the embedded includes() could never match.
	text := strings.Repeat("a", 29) + "日本語のタスクを作成"

	path := textScanPath("button", text)

	assert.True(t, utf8.ValidString(path))
	assert.Contains(t, path, strings.Repeat("a", 29)+"日")
	assert.NotContains(t, path, `\x`)
}

func TestTextScanPathShortTextUnchanged(t *testing.T) {
	path := textScanPath("a", "新規作成")
	assert.Contains(t, path, "新規作成")
}

func TestTruncateTextRuneBoundary(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short ascii", "task", 50, "task"},
		{"long ascii", strings.Repeat("x", 60), 50, strings.Repeat("x", 50)},
		{"multibyte at cut", strings.Repeat("b", 49) + "メニュー", 50, strings.Repeat("b", 49) + "メ"},
		{"all multibyte", "新規タスクを作成する", 4, "新規タス"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateText(tt.in, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
