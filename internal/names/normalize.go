package names

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that survive NFD decomposition without shedding a combining mark.
var asciiFold = map[rune]string{
	'ø': "o", 'Ø': "O",
	'ł': "l", 'Ł': "L",
	'đ': "d", 'Đ': "D",
	'ð': "d", 'Ð': "D",
	'þ': "th", 'Þ': "Th",
	'ß': "ss",
	'æ': "ae", 'Æ': "Ae",
	'œ': "oe", 'Œ': "Oe",
	'ı': "i",
	'ħ': "h", 'Ħ': "H",
	'‘': "'", '’': "'", 'ʼ': "'",
	'‐': "-", '‑': "-", '–': "-", '—': "-",
}

// Normalize canonicalizes a raw name for comparison: surrounding whitespace
// is trimmed, accented letters are folded to ASCII, the result is lower-cased
// and internal whitespace runs collapse to a single space.
//
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ToLower(transliterate(s))
	// Lower-casing can reintroduce combining marks (İ -> i̇).
	s = transliterate(s)
	return strings.Join(strings.Fields(s), " ")
}

// Reorder rewrites "Last, First" as "First Last". Anything other than exactly
// one comma with text on both sides is returned unchanged.
func Reorder(raw string) string {
	if strings.Count(raw, ",") != 1 {
		return raw
	}
	last, first, _ := strings.Cut(raw, ",")
	last = strings.TrimSpace(last)
	first = strings.TrimSpace(first)
	if last == "" || first == "" {
		return raw
	}
	return first + " " + last
}

// Canonical reorders and then normalizes, the form every resolver compares.
func Canonical(raw string) string {
	return Normalize(Reorder(raw))
}

func transliterate(s string) string {
	if isASCII(s) {
		return s
	}
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}
	if isASCII(stripped) {
		return stripped
	}
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if repl, ok := asciiFold[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
