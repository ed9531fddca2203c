package utils

import "unicode/utf8"

const (
	// EncodingUTF8 labels content decoded as UTF-8.
	EncodingUTF8 = "utf-8"
	// EncodingLatin1 labels content decoded with the latin-1 fallback.
	EncodingLatin1 = "latin-1"
)

// DeduplicatePatterns removes duplicate patterns from a slice while
// preserving order. The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{}, len(patterns))
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; exists {
			continue
		}
		encounteredPatterns[pattern] = struct{}{}
		result = append(result, pattern)
	}
	return result
}

// DecodeTextContent converts raw file bytes to a displayable string. Valid
// UTF-8 passes through unchanged; anything else is decoded byte-for-byte as
// latin-1 so every input produces some readable text. The second return
// value names the encoding used.
func DecodeTextContent(data []byte) (string, string) {
	if utf8.Valid(data) {
		return string(data), EncodingUTF8
	}
	decodedRunes := make([]rune, len(data))
	for index, byteValue := range data {
		decodedRunes[index] = rune(byteValue)
	}
	return string(decodedRunes), EncodingLatin1
}
