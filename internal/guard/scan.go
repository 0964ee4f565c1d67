package guard

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// token is one lexeme of the PostgreSQL scanner. keyword is set for words
// the grammar treats as keywords; identifiers, quoted identifiers and
// literals never carry it.
type token struct {
	text    string
	keyword bool
}

func (t token) isKeyword(word string) bool {
	return t.keyword && strings.EqualFold(t.text, word)
}

func (t token) isComment() bool {
	return strings.HasPrefix(t.text, "--") || strings.HasPrefix(t.text, "/*")
}

// scan tokenises sql with the PostgreSQL lexer. Unterminated literals,
// quoted identifiers and comments are errors.
func scan(sql string) ([]token, error) {
	result, err := pg_query.Scan(sql)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	tokens := make([]token, 0, len(result.GetTokens()))
	for _, t := range result.GetTokens() {
		start, end := int(t.GetStart()), int(t.GetEnd())
		if start < 0 || end > len(sql) || start > end {
			return nil, fmt.Errorf("scan: token out of range [%d:%d]", start, end)
		}
		tokens = append(tokens, token{
			text:    sql[start:end],
			keyword: t.GetKeywordKind() != pg_query.KeywordKind_NO_KEYWORD,
		})
	}
	return tokens, nil
}
