package shipment

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	referencePrefix = "PP"
	maxReferenceLen = 80
	maxSlugTokenLen = 10
)

// BuildReference produces the human-meaningful alphanumeric reference
// "PP" + YYMMDD + "-" + SLUG + "-" + numericRef. The slug is derived from the
// sender profile name, falling back to the recipient name.
func BuildReference(now time.Time, profileName, recipientName string, numericRef int64) string {
	name := strings.TrimSpace(profileName)
	if name == "" {
		name = strings.TrimSpace(recipientName)
	}
	ref := fmt.Sprintf("%s%s-%s-%d", referencePrefix, now.Format("060102"), nameSlug(name), numericRef)
	if len(ref) > maxReferenceLen {
		ref = ref[:maxReferenceLen]
	}
	return ref
}

// nameSlug takes the first and last whitespace-separated tokens of the name,
// transliterates them to ASCII, uppercases, strips non-alphanumerics and caps
// each at ten characters.
func nameSlug(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return ""
	}
	first := slugToken(tokens[0])
	if len(tokens) == 1 {
		return first
	}
	last := slugToken(tokens[len(tokens)-1])
	if first == "" {
		return last
	}
	if last == "" {
		return first
	}
	return first + "-" + last
}

func slugToken(token string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(transliterate(token)) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() >= maxSlugTokenLen {
				break
			}
		}
	}
	return b.String()
}

// asciiFold decomposes accented characters and drops the combining marks, so
// "Müller" becomes "Muller" before the slug filter runs.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func transliterate(s string) string {
	out, _, err := transform.String(asciiFold, s)
	if err != nil {
		return s
	}
	return out
}
