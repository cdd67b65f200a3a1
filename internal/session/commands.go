package session

import (
	"context"

	"github.com/designcraft-ai/design-assistant/internal/docgen"
	"github.com/designcraft-ai/design-assistant/internal/model"
	"github.com/designcraft-ai/design-assistant/internal/store"
)

// These are the only entry points the CLI layer calls into the core.

// StartSession runs a full design session and returns the terminal
// conversation and its transcript path.
func (e *Engine) StartSession(ctx context.Context, opts StartOptions) (*model.Conversation, string, error) {
	conv, err := e.Start(ctx, opts)
	if conv == nil {
		return nil, "", err
	}
	return conv, e.store.Path(conv), err
}

// ListSessions lists stored transcripts, newest first.
func (e *Engine) ListSessions() ([]store.SessionSummary, error) {
	return e.store.List()
}

// GenerateDocuments loads a stored session by ID and generates the
// project documents from its design record. The stored transcript is
// not rewritten: the conversation is terminal once persisted, so the
// derived sections live on the returned record only.
func (e *Engine) GenerateDocuments(ctx context.Context, sessionID, outputDir string) (*model.DesignRecord, *docgen.Result, error) {
	conv, _, err := e.store.Find(sessionID)
	if err != nil {
		return nil, nil, err
	}

	gen := docgen.New(e.client, docgen.GenConfig{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
	}, e.log.WithSession(conv.ID))

	record := conv.Record
	result, err := gen.Generate(ctx, &record, outputDir)
	if err != nil {
		return nil, nil, err
	}
	return &record, result, nil
}
