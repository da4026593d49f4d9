package util

// TruncateRunes cuts s to at most max runes. max <= 0 disables truncation.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
