package cms

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// SeoString turns s into a lowercase ASCII slug: accents are dropped, "đ" becomes
// "d" and every run of other characters collapses into one hyphen.
//
//	SeoString("Trang Chủ Đẹp!") == "trang-chu-dep"
func SeoString(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = lower.String(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case r == 'đ':
			r = 'd'
		case r > unicode.MaxASCII:
			pendingHyphen = b.Len() > 0
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen {
				b.WriteByte('-')
				pendingHyphen = false
			}
			b.WriteRune(r)
			continue
		}
		pendingHyphen = b.Len() > 0
	}
	return b.String()
}

// htmlPolicy sanitises rich text entered through the admin surface. A Policy is safe
// for concurrent use once built.
var htmlPolicy = bluemonday.UGCPolicy()

// SanitizeHTML strips scripts, event handlers and unsafe URLs from html
func SanitizeHTML(html string) string {
	return htmlPolicy.Sanitize(html)
}
