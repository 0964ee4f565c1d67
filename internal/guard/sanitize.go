// Package guard filters questions before they reach the LLM and vets the
// SQL that comes back before it reaches a database.
package guard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrIrrelevant = errors.New("no relevant query for question")

type RejectionKind string

const (
	RejectBlocked   RejectionKind = "blocked"
	RejectNotSelect RejectionKind = "not_select"
)

// RejectionError is returned when generated SQL fails a safety check.
type RejectionError struct {
	Kind   RejectionKind
	SQL    string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("sql rejected (%s): %s", e.Kind, e.Reason)
}

var blockedKeywords = map[string]struct{}{
	"drop":     {},
	"delete":   {},
	"update":   {},
	"insert":   {},
	"alter":    {},
	"truncate": {},
}

var (
	leadingFence  = regexp.MustCompile("^```[a-zA-Z]*")
	trailingFence = regexp.MustCompile("```$")
)

// StripFences removes a leading ```lang marker and a trailing ``` marker.
func StripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = leadingFence.ReplaceAllString(cleaned, "")
	cleaned = trailingFence.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

type Sanitizer struct {
	// ParserCheck enables the PostgreSQL grammar parse after the token checks.
	ParserCheck bool
}

// Sanitize vets raw LLM output with the parser check enabled.
func Sanitize(raw string) (string, error) {
	return Sanitizer{ParserCheck: true}.Sanitize(raw)
}

// Sanitize returns the cleaned SQL or one of ErrIrrelevant and
// *RejectionError. Checks run in order: fences, relevance, blocked
// keywords, then the SELECT-only gate.
func (s Sanitizer) Sanitize(raw string) (string, error) {
	cleaned := StripFences(raw)
	if strings.Contains(cleaned, "UNRELATED") || utf8.RuneCountInString(cleaned) < 10 {
		return "", ErrIrrelevant
	}

	tokens, scanErr := scan(cleaned)
	if keyword, ok := findBlocked(cleaned, tokens, scanErr); ok {
		return "", &RejectionError{Kind: RejectBlocked, SQL: cleaned, Reason: "contains " + strings.ToUpper(keyword)}
	}
	if scanErr != nil {
		return "", notSelect(cleaned, scanErr.Error())
	}
	if err := checkSingleSelect(cleaned, tokens); err != nil {
		return "", err
	}
	if s.ParserCheck {
		if err := checkParsed(cleaned); err != nil {
			return "", err
		}
	}
	return cleaned, nil
}

// findBlocked looks for mutating keywords among keyword tokens, so string
// literals, quoted identifiers and names like updated_at pass. Text the
// scanner cannot tokenise falls back to a substring scan.
func findBlocked(cleaned string, tokens []token, scanErr error) (string, bool) {
	if scanErr != nil {
		lower := strings.ToLower(cleaned)
		for _, keyword := range []string{"drop", "delete", "update", "insert", "alter", "truncate"} {
			if strings.Contains(lower, keyword) {
				return keyword, true
			}
		}
		return "", false
	}
	for _, tok := range tokens {
		if !tok.keyword {
			continue
		}
		word := strings.ToLower(tok.text)
		if _, blocked := blockedKeywords[word]; blocked {
			return word, true
		}
	}
	return "", false
}

func checkSingleSelect(cleaned string, tokens []token) error {
	if len(tokens) == 0 || !tokens[0].isKeyword("select") {
		return notSelect(cleaned, "statement does not start with SELECT")
	}
	for i, tok := range tokens {
		switch {
		case tok.isComment():
			return notSelect(cleaned, "comments are not allowed")
		case tok.text == ";":
			for _, rest := range tokens[i+1:] {
				if rest.text != ";" {
					return notSelect(cleaned, "multiple statements are not allowed")
				}
			}
		case tok.isKeyword("into"):
			return notSelect(cleaned, "SELECT INTO is not allowed")
		}
	}
	return nil
}

func notSelect(cleaned, reason string) *RejectionError {
	return &RejectionError{Kind: RejectNotSelect, SQL: cleaned, Reason: reason}
}
