package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/querybridge/querybridge/internal/schema"
)

const systemPrompt = "You are a helpful SQL assistant for business analytics."

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer sends a chat transcript to a language model and returns the
// first completion.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Generator turns a business question into candidate SQL. The output is
// untrusted and must go through guard.Sanitize before execution.
type Generator struct {
	completer Completer
	overview  string
}

func NewGenerator(completer Completer) *Generator {
	return &Generator{completer: completer, overview: schema.Overview()}
}

func (g *Generator) Generate(ctx context.Context, question string) (string, error) {
	if g == nil || g.completer == nil {
		return "", fmt.Errorf("sql generator is not configured")
	}
	content, err := g.completer.Complete(ctx, g.Messages(question))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// Messages builds the system and user messages for question.
func (g *Generator) Messages(question string) []Message {
	userPrompt := fmt.Sprintf(`
You are an expert data analyst who writes safe, valid SQL for PostgreSQL.

Schema overview:
%s

Rules:
1. Output ONLY SQL (no text, markdown, or commentary).
2. Always use double quotes for table and column names.
3. Generate only SELECT queries.
4. If the question doesn't make sense for this database, respond with: "UNRELATED".
Question: "%s"
`, g.overview, question)

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
}
