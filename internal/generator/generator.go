// Package generator wraps the external natural-language generator: given a
// query and the retrieved record context, it synthesizes an answer. The
// retrieval core never depends on generation succeeding — any failure at
// this boundary is substituted with a static apology by the caller.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/clientiq/clientiq/internal/customer"
)

// Apology is the static response substituted when generation fails.
const Apology = "I'm sorry, I couldn't generate an answer right now. Please try again in a moment."

// Generator synthesizes a natural-language answer from a query and the
// formatted context of retrieved records.
type Generator interface {
	Generate(ctx context.Context, query, context string, comprehensive bool) (string, error)
}

// Genkit generates answers through a Genkit-registered model.
type Genkit struct {
	g         *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// NewGenkit creates a generator bound to a model name (e.g.
// "googleai/gemini-2.5-flash").
func NewGenkit(g *genkit.Genkit, modelName string, logger *slog.Logger) *Genkit {
	if logger == nil {
		logger = slog.Default()
	}
	return &Genkit{g: g, modelName: modelName, logger: logger}
}

// Generate answers the query from the supplied context. Comprehensive
// queries get an instruction to aggregate over every listed profile
// instead of describing the first few.
func (x *Genkit) Generate(ctx context.Context, query, context string, comprehensive bool) (string, error) {
	prompt := buildPrompt(query, context, comprehensive)

	response, err := genkit.Generate(ctx, x.g,
		ai.WithModelName(x.modelName),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	answer := response.Text()
	x.logger.Debug("generated answer", "query_length", len(query), "answer_length", len(answer))
	return answer, nil
}

func buildPrompt(query, context string, comprehensive bool) string {
	var b strings.Builder

	b.WriteString("You are a customer service assistant for a bank. Answer the question ")
	b.WriteString("using only the customer profiles below. If the profiles do not contain ")
	b.WriteString("the answer, say so plainly.\n\n")

	if comprehensive {
		b.WriteString("The question asks about the customer base as a whole. Consider every ")
		b.WriteString("profile listed, not just the first few, and state counts exactly.\n\n")
	}

	b.WriteString("Customer profiles:\n")
	b.WriteString(context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)

	return b.String()
}

// FormatContext renders retrieved records into the context block handed to
// the generator. Product type lists pass through from the profiles
// unchanged.
func FormatContext(records []customer.Record) string {
	if len(records) == 0 {
		return "No matching customer profiles were found."
	}

	profiles := make([]string, len(records))
	for i, r := range records {
		profiles[i] = customer.Profile(r)
	}
	return strings.Join(profiles, "\n---\n")
}
