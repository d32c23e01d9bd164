package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// TextProcessor provides utilities for turning raw form data into analyzable text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// FlattenFields joins all string values of a form-data map into one text
// blob. Keys are visited in sorted order and nested maps are flattened
// depth-first, so identical form data always yields identical text.
func (tp *TextProcessor) FlattenFields(fields map[string]any) string {
	var sb strings.Builder
	flattenInto(&sb, fields)
	return strings.TrimSpace(sb.String())
}

func flattenInto(sb *strings.Builder, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			if v != "" {
				sb.WriteString(v)
				sb.WriteString("\n")
			}
		case map[string]any:
			flattenInto(sb, v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					sb.WriteString(s)
					sb.WriteString("\n")
				}
			}
		case fmt.Stringer:
			sb.WriteString(v.String())
			sb.WriteString("\n")
		}
	}
}

// CountLeafFields returns the number of scalar values in a form-data map,
// counting nested map and multi-value entries individually.
func (tp *TextProcessor) CountLeafFields(fields map[string]any) int {
	count := 0
	for _, raw := range fields {
		switch v := raw.(type) {
		case map[string]any:
			count += tp.CountLeafFields(v)
		case []any:
			count += len(v)
		default:
			count++
		}
	}
	return count
}

// Normalize applies NFKC normalization and strips invalid UTF-8 so that
// visually equivalent spam payloads normalize to the same byte sequence.
func (tp *TextProcessor) Normalize(text string) string {
	return norm.NFKC.String(tp.SanitizeUTF8(text))
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	// If no limit or text is already within limits, return as is
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	// First truncate to the byte limit
	truncated := text[:maxSize]

	// Ensure the truncated text ends with a valid UTF-8 sequence
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		// Remove bytes until we have valid UTF-8
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	// Replace invalid UTF-8 sequences with the Unicode replacement character
	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				// Skip invalid UTF-8 sequences
				continue
			}
		}
		result = append(result, r)
	}

	return string(result)
}

// ContentHash returns a stable hex digest of the normalized submission text,
// used as the memoization key.
func (tp *TextProcessor) ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
