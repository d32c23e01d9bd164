package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newProcessor() *TextProcessor {
	return NewTextProcessor(zap.NewNop())
}

func TestFlattenFieldsSortsKeys(t *testing.T) {
	tp := newProcessor()

	fields := map[string]any{
		"zeta":  "last",
		"alpha": "first",
		"mid":   "middle",
	}

	// key order, not map iteration order, decides the output
	for i := 0; i < 10; i++ {
		assert.Equal(t, "first\nmiddle\nlast", tp.FlattenFields(fields))
	}
}

func TestFlattenFieldsNestedStructures(t *testing.T) {
	tp := newProcessor()

	fields := map[string]any{
		"message": "outer",
		"meta": map[string]any{
			"b": "inner-b",
			"a": "inner-a",
		},
		"tags": []any{"one", "two", 3},
	}

	assert.Equal(t, "outer\ninner-a\ninner-b\none\ntwo", tp.FlattenFields(fields))
}

func TestFlattenFieldsSkipsEmptyAndNonString(t *testing.T) {
	tp := newProcessor()

	fields := map[string]any{
		"empty":   "",
		"number":  42,
		"boolean": true,
		"text":    "kept",
	}

	assert.Equal(t, "kept", tp.FlattenFields(fields))
}

func TestCountLeafFields(t *testing.T) {
	tp := newProcessor()

	tests := []struct {
		name   string
		fields map[string]any
		want   int
	}{
		{name: "empty", fields: map[string]any{}, want: 0},
		{name: "flat", fields: map[string]any{"a": "x", "b": 2}, want: 2},
		{
			name: "nested map and slice",
			fields: map[string]any{
				"a": "x",
				"b": map[string]any{"c": "y", "d": "z"},
				"e": []any{"1", "2", "3"},
			},
			want: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tp.CountLeafFields(tt.fields))
		})
	}
}

func TestNormalizeFoldsCompatibilityForms(t *testing.T) {
	tp := newProcessor()

	// fullwidth and ligature forms collapse to their plain equivalents,
	// so homoglyph obfuscation normalizes to the same bytes
	assert.Equal(t, "Free", tp.Normalize("Ｆｒｅｅ"))
	assert.Equal(t, "file", tp.Normalize("ﬁle"))
	assert.Equal(t, "plain text", tp.Normalize("plain text"))
}

func TestTruncateText(t *testing.T) {
	tp := newProcessor()

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "whatever", tp.TruncateText("whatever", 0))

	long := strings.Repeat("abcdefghij", 100)
	truncated := tp.TruncateText(long, 50)
	assert.True(t, strings.HasPrefix(truncated, long[:50]))
	assert.Contains(t, truncated, "truncated")
	assert.Less(t, len(truncated), len(long))
}

func TestTruncateTextPreservesValidUTF8(t *testing.T) {
	tp := newProcessor()

	// two-byte runes throughout: a cut at 51 bytes lands mid-rune
	long := strings.Repeat("é", 100)
	truncated := tp.TruncateText(long, 51)
	assert.True(t, utf8.ValidString(truncated))
}

func TestContentHash(t *testing.T) {
	tp := newProcessor()

	first := tp.ContentHash("buy viagra now")
	assert.Len(t, first, 64)
	assert.Equal(t, first, tp.ContentHash("buy viagra now"))
	assert.NotEqual(t, first, tp.ContentHash("buy viagra now!"))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := newProcessor()

	assert.Equal(t, "clean", tp.SanitizeUTF8("clean"))

	broken := "ok" + string([]byte{0xff, 0xfe}) + "tail"
	sanitized := tp.SanitizeUTF8(broken)
	assert.True(t, utf8.ValidString(sanitized))
	assert.Equal(t, "oktail", sanitized)
}
