package guard

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsTrivial reports whether question is too short or too noisy to be worth
// an LLM call. It is a heuristic; the rules run in order and the first
// match rejects:
//
//  1. fewer than 4 characters after trimming
//  2. no ASCII letter or digit at all
//  3. no ASCII letter
//  4. a single token with no digit
func IsTrivial(question string) bool {
	trimmed := strings.TrimSpace(question)
	if utf8.RuneCountInString(trimmed) < 4 {
		return true
	}
	if !strings.ContainsFunc(trimmed, isASCIIAlnum) {
		return true
	}
	if !strings.ContainsFunc(question, isASCIILetter) {
		return true
	}
	if len(strings.Fields(question)) <= 1 && !strings.ContainsFunc(question, unicode.IsDigit) {
		return true
	}
	return false
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIAlnum(r rune) bool {
	return isASCIILetter(r) || (r >= '0' && r <= '9')
}
