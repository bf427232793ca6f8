package match

import "strings"

// NormalizeEmail lowercases and trims an email address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LocalPart returns the part before the @, normalized, or "" when the
// address has no local part.
func LocalPart(email string) string {
	e := NormalizeEmail(email)
	at := strings.IndexByte(e, '@')
	if at <= 0 {
		return ""
	}
	return e[:at]
}

// Domain returns the part after the @, normalized, or "".
func Domain(email string) string {
	e := NormalizeEmail(email)
	at := strings.IndexByte(e, '@')
	if at < 0 || at == len(e)-1 {
		return ""
	}
	return e[at+1:]
}

// domainSwaps is the fixed table of observed regional provider variants.
// Customers routinely type the .com form of a .pl mailbox (and vice versa)
// at one vendor's checkout but not the other's.
var domainSwaps = map[string][]string{
	"gmail.com":   {"gmail.pl", "googlemail.com"},
	"gmail.pl":    {"gmail.com"},
	"wp.pl":       {"o2.pl", "wp.com"},
	"o2.pl":       {"wp.pl"},
	"onet.pl":     {"op.pl", "onet.eu"},
	"op.pl":       {"onet.pl"},
	"interia.pl":  {"interia.eu"},
	"interia.eu":  {"interia.pl"},
}

// DomainVariants returns the candidate alternative addresses for an email:
// the fixed swap table first, then the generic .pl <-> .com suffix swap.
// The original address itself is not included.
func DomainVariants(email string) []string {
	local := LocalPart(email)
	domain := Domain(email)
	if local == "" || domain == "" {
		return nil
	}

	seen := map[string]bool{domain: true}
	variants := []string{}
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			variants = append(variants, local+"@"+d)
		}
	}

	for _, d := range domainSwaps[domain] {
		add(d)
	}
	if strings.HasSuffix(domain, ".pl") {
		add(strings.TrimSuffix(domain, ".pl") + ".com")
	} else if strings.HasSuffix(domain, ".com") {
		add(strings.TrimSuffix(domain, ".com") + ".pl")
	}

	return variants
}
