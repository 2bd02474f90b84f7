package utils

// Truncate returns s truncated to maxLen runes, with "..." appended if
// truncated. Runes, not bytes, so a cut never splits a multi-byte character.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// TruncateClean returns s truncated to maxLen runes without a marker, used for
// titles. Runes, not bytes, so accented text is never cut mid-character.
func TruncateClean(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
