package access

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName strips diacritics, lower-cases and trims a name so that
// "Luiz Inácio" and "luiz inacio" compare equal.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(strings.ToLower(b.String()))
}

func NormalizeTicketCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
