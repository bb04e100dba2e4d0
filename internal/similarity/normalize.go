package similarity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketPattern = regexp.MustCompile(`\[.*?\]`)
	parenPattern   = regexp.MustCompile(`\(.*?\)`)
)

// Normalize composes Hangul (NFC), lowercases and trims s
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// NormalizeStrict collapses runs of whitespace, trims and lowercases a title.
// Two titles from the same source are duplicates only if their strict forms are equal.
func NormalizeStrict(s string) string {
	return strings.ToLower(collapseSpace(norm.NFC.String(s)))
}

// NormalizeLoose removes bracketed and parenthesized segments and punctuation
// before collapsing whitespace and lowercasing. Portal titles often carry a
// "[부서명]" prefix or a "(마감임박)" suffix that the other source omits.
func NormalizeLoose(s string) string {
	s = norm.NFC.String(s)
	s = bracketPattern.ReplaceAllString(s, "")
	s = parenPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, s)
	return strings.ToLower(collapseSpace(s))
}

// Preprocess prepares free text for term weighting: lowercase, keep only
// Hangul syllables, ASCII letters, digits and whitespace, collapse whitespace
func Preprocess(s string) string {
	s = strings.ToLower(norm.NFC.String(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '가' && r <= '힣', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
	return collapseSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
