package utils

import (
	"bytes"
	"net/http"
)

// binarySniffLength bounds how many bytes are inspected when classifying
// content as binary.
const binarySniffLength = 8000

// IsBinaryContent reports whether the content looks like binary data rather
// than text. A NUL byte within the sniff window is treated as conclusive.
func IsBinaryContent(data []byte) bool {
	window := data
	if len(window) > binarySniffLength {
		window = window[:binarySniffLength]
	}
	return bytes.IndexByte(window, 0) >= 0
}

// DetectContentType sniffs the MIME type of the given content bytes.
func DetectContentType(data []byte) string {
	return http.DetectContentType(data)
}
