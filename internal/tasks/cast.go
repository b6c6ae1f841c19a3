package tasks

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var castSeparators = ",/·、;\n"

// castSuffixes are trailing markers for "and others" that follow the last listed name.
var castSuffixes = []string{" 등", " 외"}

// ParseCastNames splits a provider cast string into candidate artist names.
//
// Names are separated by commas, slashes, middle dots and semicolons. Parenthesised roles are
// dropped, a trailing "등"/"외" marker is removed, and tokens consisting of a single Hangul
// syllable or no letters at all are discarded. The result keeps first-seen order without duplicates.
func ParseCastNames(cast string) []string {
	tokens := strings.FieldsFunc(cast, func(r rune) bool {
		return strings.ContainsRune(castSeparators, r)
	})

	seen := make(map[string]struct{}, len(tokens))
	names := make([]string, 0, len(tokens))
	for _, token := range tokens {
		name := cleanCastToken(token)
		if !hasLetterOrDigit(name) || isSingleSyllable(name) {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func cleanCastToken(token string) string {
	name := stripParens(token)
	name = strings.Join(strings.Fields(name), " ")

	for _, suffix := range castSuffixes {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok {
			return strings.TrimSpace(trimmed)
		}
	}
	return name
}

func stripParens(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func hasLetterOrDigit(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

// isSingleSyllable reports whether s is one Hangul syllable such as "외" or "등".
func isSingleSyllable(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.Is(unicode.Hangul, r)
}
