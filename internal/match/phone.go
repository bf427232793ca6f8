package match

import "strings"

// NormalizePhone reduces a raw phone number to the national significant
// number under the Polish numbering plan: strip everything but digits and a
// leading plus, then drop a "+48" country prefix, a bare "48" prefix when a
// 9-digit subscriber number remains, or a national "0" prefix when a
// 9-digit subscriber number remains.
//
// "+48 577 558 591", "48577558591", "0577558591" and "577558591" all
// normalize to "577558591".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	switch {
	case strings.HasPrefix(s, "+48"):
		s = s[3:]
	case strings.HasPrefix(s, "48") && len(s) == 11:
		s = s[2:]
	case strings.HasPrefix(s, "0") && len(s) == 10:
		s = s[1:]
	}

	// A stray plus left over from malformed input never matches anything.
	return strings.TrimPrefix(s, "+")
}
