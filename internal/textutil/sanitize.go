package textutil

import "strings"

// SanitizeFileName makes a topic title safe to use as a file or directory
// name. Path separators, colons, and asterisks become dashes; the remaining
// characters Windows filesystems reject are dropped; surrounding whitespace
// is trimmed.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*':
			b.WriteByte('-')
		case '?', '"', '<', '>', '|':
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
