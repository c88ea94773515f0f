package analytics

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	specialChars = regexp.MustCompile(`[&\\,+()$~%'"*?!{}.]`)
	htmlTags     = regexp.MustCompile(`<[^>]+>`)
)

// RemoveSpecialCharacters drops punctuation that the tag manager rejects.
func RemoveSpecialCharacters(s string) string {
	return specialChars.ReplaceAllString(s, "")
}

// StripHTMLTags removes markup and a single pair of wrapping single quotes.
func StripHTMLTags(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return htmlTags.ReplaceAllString(s, "")
}

// NoExtraSpaces collapses whitespace runs, keeping the last rune of each run.
func NoExtraSpaces(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if unicode.IsSpace(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ToKebabCase(s string) string {
	return strings.Join(strings.Split(strings.ToLower(NoExtraSpaces(s)), " "), "-")
}

func ToSnakeCase(s string) string {
	return strings.Join(strings.Split(s, " "), "_")
}

// CleanData normalizes one dataLayer value. Empty results become "(not-set)".
func CleanData(s string) string {
	out := ToKebabCase(StripHTMLTags(RemoveSpecialCharacters(s)))
	if out == "" {
		return "(not-set)"
	}
	return out
}

// CleanArray cleans each non-empty value and joins them with " | ".
func CleanArray(values []string) string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		cleaned = append(cleaned, CleanData(v))
	}
	return strings.Join(cleaned, " | ")
}
