// Package chat answers questions grounded in retrieved context: rephrase the
// question against session history, search the chunk collection, prompt the
// language model, and record the exchange.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/session"
)

// Engine orchestrates one question/answer round trip.
type Engine struct {
	retriever     *retrieval.Retriever
	model         llm.ChatModel
	sessions      *session.Store
	contextChunks int
	logger        *zap.Logger
}

// NewEngine creates a chat engine. contextChunks is how many retrieved chunks
// feed each answer.
func NewEngine(retriever *retrieval.Retriever, model llm.ChatModel, sessions *session.Store, contextChunks int, logger *zap.Logger) *Engine {
	if contextChunks <= 0 {
		contextChunks = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		retriever:     retriever,
		model:         model,
		sessions:      sessions,
		contextChunks: contextChunks,
		logger:        logger,
	}
}

// Answer responds to question within the given session. The session is
// created on first use. The exchange is recorded only after the model
// answered, so a failed round leaves the history untouched.
func (e *Engine) Answer(ctx context.Context, question, sessionID string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", &models.ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if sessionID == "" {
		return "", &models.ValidationError{Field: "session_id", Reason: "must not be empty"}
	}
	sess := e.sessions.GetOrCreate(sessionID)
	history := sess.History()

	searchQuery, err := e.rephrase(ctx, question, history)
	if err != nil {
		return "", err
	}
	e.logger.Debug("rephrased question",
		zap.String("session_id", sessionID),
		zap.String("search_query", searchQuery))

	records, err := e.retriever.SemanticSearch(ctx, models.CollectionChunks, searchQuery, retrieval.SearchOptions{
		Hits: e.contextChunks,
	})
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	chunkTexts := make([]string, 0, len(records))
	for _, rec := range records {
		chunkTexts = append(chunkTexts, rec.StringField(models.FieldChunkText))
	}

	answer, err := e.model.Complete(ctx, buildAnswerPrompt(question, chunkTexts, history))
	if err != nil {
		return "", fmt.Errorf("complete answer: %w", err)
	}

	sess.AppendExchange(question, answer)
	e.logger.Info("answered question",
		zap.String("session_id", sessionID),
		zap.Int("context_chunks", len(chunkTexts)))
	return answer, nil
}

// rephrase makes the question explicit for retrieval using the conversation
// history. A model failure aborts the answer; an empty result falls back to
// the original question so retrieval never runs on an empty query.
func (e *Engine) rephrase(ctx context.Context, question string, history []models.Message) (string, error) {
	rephrased, err := e.model.Complete(ctx, buildRephrasePrompt(question, history))
	if err != nil {
		return "", fmt.Errorf("rephrase question: %w", err)
	}
	rephrased = strings.TrimSpace(rephrased)
	if rephrased == "" {
		return question, nil
	}
	return rephrased, nil
}

// RemoveSession deletes a session and its history.
func (e *Engine) RemoveSession(sessionID string) error {
	return e.sessions.Remove(sessionID)
}
