package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	assert.Equal(t, "short", tp.TruncateText("short", 10))
	assert.Equal(t, "anything", tp.TruncateText("anything", 0))
	assert.Equal(t, "abc"+TruncationMarker, tp.TruncateText("abcdef", 3))

	// "é" is two bytes; cutting in the middle must drop it
	got := tp.TruncateText("caféteria", 4)
	assert.Equal(t, "caf"+TruncationMarker, got)
	assert.True(t, utf8.ValidString(got))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	assert.Equal(t, "hello\nworld", tp.SanitizeUTF8("hello\r\nworld"))
	assert.Equal(t, "abc", tp.SanitizeUTF8("a\xffb\xfec"))
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zaptest.NewLogger(t))

	body := strings.Repeat("x", 100) + "\xff"
	got := tp.ProcessText(body, 50)
	assert.True(t, strings.HasSuffix(got, TruncationMarker))
	assert.Equal(t, 50+len(TruncationMarker), len(got))
}
