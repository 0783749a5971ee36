package telephony

import "strings"

// NormalizeE164 strips everything but digits, assumes North America for
// bare 10-digit numbers, and prefixes "+". Empty input stays empty.
func NormalizeE164(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		digits = "1" + digits
	}
	return "+" + digits
}
