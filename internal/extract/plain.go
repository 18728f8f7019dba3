package extract

import "strings"

// extractPlain returns content as a string with invalid UTF-8 replaced and
// Windows line endings normalized.
func extractPlain(content []byte) string {
	text := strings.ToValidUTF8(string(content), "�")
	return strings.ReplaceAll(text, "\r\n", "\n")
}
