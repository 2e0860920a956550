package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clientiq/clientiq/internal/customer"
	"github.com/clientiq/clientiq/internal/generator"
	"github.com/clientiq/clientiq/internal/search"
)

// maxMessageBytes bounds the request body; queries are short questions,
// not documents.
const maxMessageBytes = 16 * 1024

// Retriever is the slice of the retrieval orchestrator the chat handler
// uses.
type Retriever interface {
	Retrieve(ctx context.Context, query string) search.Result
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the generated answer plus retrieval metadata.
type ChatResponse struct {
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
	Method        string   `json:"method"`
	Comprehensive bool     `json:"comprehensive"`
}

// ChatHandler answers customer questions: retrieve, format context,
// generate.
type ChatHandler struct {
	retriever Retriever
	generator generator.Generator
	logger    *slog.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(retriever Retriever, gen generator.Generator, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{retriever: retriever, generator: gen, logger: logger}
}

// ServeHTTP handles POST /api/chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST", h.logger)
		return
	}

	var req ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", h.logger)
		return
	}

	result := h.retrieve(r.Context(), req.Message)

	answer := h.answer(r.Context(), req.Message, result)

	resp := ChatResponse{
		Answer:        answer,
		Sources:       sourceIDs(result.Records),
		Method:        string(result.Method),
		Comprehensive: result.Comprehensive,
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// retrieve shields the handler from retrieval panics: anything unrecovered
// degrades to an empty candidate set, never a crashed request.
func (h *ChatHandler) retrieve(ctx context.Context, query string) (result search.Result) {
	defer func() {
		if err := recover(); err != nil {
			h.logger.Error("retrieval panic, continuing with empty candidates",
				"request_id", requestIDFromContext(ctx),
				"error", err,
			)
			result = search.Result{Method: search.MethodNone}
		}
	}()
	return h.retriever.Retrieve(ctx, query)
}

// answer runs generation over the retrieved context, substituting the
// static apology on any generator failure.
func (h *ChatHandler) answer(ctx context.Context, query string, result search.Result) string {
	if strings.TrimSpace(query) == "" {
		return "Please ask a question about a customer."
	}

	context := generator.FormatContext(result.Records)
	answer, err := h.generator.Generate(ctx, query, context, result.Comprehensive)
	if err != nil {
		h.logger.Warn("generation failed, substituting apology",
			"request_id", requestIDFromContext(ctx),
			"error", err,
		)
		return generator.Apology
	}

	return generator.CorrectProductCounts(answer, result.Records)
}

func sourceIDs(records []customer.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
