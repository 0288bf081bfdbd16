// Package content holds the stateless text transforms applied to the
// free-text info/description fields, plus short-ID generation for records
// whose caller does not supply a primary key.
package content

import (
	"crypto/rand"
	"strings"
)

// ShortIDLength is the digit count of generated product IDs.
const ShortIDLength = 7

// fixedCharacters maps mojibake sequences seen in imported catalog text to
// their intended form.
var fixedCharacters = map[string]string{
	"Â ": " ",
}

// ToStorageForm converts user-entered text to the HTML-ish form kept at
// rest: newlines become <br> and double quotes become single quotes, since
// the rendering layer embeds the value inside double-quoted markup.
// Leading/trailing whitespace is trimmed.
func ToStorageForm(text string) string {
	html := strings.ReplaceAll(text, "\n", "<br>")
	html = strings.ReplaceAll(html, `"`, "'")
	return strings.TrimSpace(html)
}

// ToDisplayForm is the inverse of ToStorageForm. The round trip is lossy:
// single quotes in the source text come back as double quotes, and a
// literal "<br>" in the source is indistinguishable from a newline. That is
// an accepted limitation of the format, not something to repair here.
func ToDisplayForm(html string) string {
	text := strings.ReplaceAll(html, "<br>", "\n")
	text = strings.ReplaceAll(text, "'", `"`)
	return strings.TrimSpace(text)
}

// FixCharacters cleans known bad byte sequences out of imported text.
func FixCharacters(text string) string {
	for bad, good := range fixedCharacters {
		text = strings.ReplaceAll(text, bad, good)
	}
	return text
}

// GenerateShortID returns a fixed-length numeric ID. Uniqueness rests on
// random-source entropy only; callers needing hard uniqueness must supply
// their own keys.
func GenerateShortID() string {
	const digits = "0123456789"
	b := make([]byte, ShortIDLength)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = digits[int(b[i])%len(digits)]
	}
	return string(b)
}
