package praise

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Control and format characters are removed except whitespace, which the
// final field collapse needs as a separator.
var reasonTransformer = transform.Chain(
	norm.NFC,
	runes.Remove(runes.Predicate(func(r rune) bool {
		return unicode.In(r, unicode.C) && !unicode.IsSpace(r)
	})),
)

// NormalizeReason produces the realized reason text stored alongside the
// raw input: NFC-normalized, control characters stripped, whitespace
// collapsed to single spaces.
func NormalizeReason(reason string) string {
	out, _, err := transform.String(reasonTransformer, reason)
	if err != nil {
		out = reason
	}
	return strings.Join(strings.Fields(out), " ")
}
