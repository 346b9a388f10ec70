package ailink

import "strings"

const defaultDiagnosticMaxBytes = 512

func truncateDiagnostic(s string, limit int) string {
	if limit <= 0 {
		limit = defaultDiagnosticMaxBytes
	}
	s = safeOneLine(s)
	if len(s) <= limit {
		return s
	}
	cut := limit
	// back up to a rune boundary
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

func safeOneLine(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
