package utils

import "strings"

// NormalizePhone strips every non-digit character from a phone number,
// including a leading "+". Empty input yields an empty string; length and
// country code are not validated here.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCPF reduces a document number to an 11-digit CPF string:
// non-digits removed, short values zero-padded, long values trimmed to the
// last 11 digits. Returns "" when no digits remain.
func NormalizeCPF(doc string) string {
	digits := NormalizePhone(doc)
	if digits == "" {
		return ""
	}
	if len(digits) < 11 {
		digits = strings.Repeat("0", 11-len(digits)) + digits
	} else if len(digits) > 11 {
		digits = digits[len(digits)-11:]
	}
	return digits
}
