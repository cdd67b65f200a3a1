// Package docgen generates the project documents (PRD, technical guide,
// README) from a finalized design record via templated generation turns
// against the remote assistant.
package docgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/designcraft-ai/design-assistant/internal/llm"
	"github.com/designcraft-ai/design-assistant/internal/model"
	"github.com/designcraft-ai/design-assistant/internal/store"
	"github.com/designcraft-ai/design-assistant/pkg/logger"
	"github.com/designcraft-ai/design-assistant/pkg/metrics"
)

// DocumentResult is the per-document outcome of a generation run.
type DocumentResult struct {
	Name     string
	FileName string
	Path     string // empty when generation failed
	Err      error
}

// Result is the combined outcome of one generation run. A failed
// document never blocks the others: partial success is reported, not
// treated as total failure.
type Result struct {
	Documents []DocumentResult
}

// Failed returns the documents whose generation failed twice.
func (r *Result) Failed() []DocumentResult {
	var out []DocumentResult
	for _, d := range r.Documents {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Paths returns the written paths keyed by document name.
func (r *Result) Paths() map[string]string {
	out := make(map[string]string)
	for _, d := range r.Documents {
		if d.Err == nil {
			out[d.Name] = d.Path
		}
	}
	return out
}

// Generator produces the three target documents.
type Generator struct {
	client llm.Client
	cfg    GenConfig
	log    *logger.Logger
}

// GenConfig carries the knobs document generation needs.
type GenConfig struct {
	Model     string
	MaxTokens int
}

// New creates a document generator.
func New(client llm.Client, cfg GenConfig, log *logger.Logger) *Generator {
	return &Generator{client: client, cfg: cfg, log: log}
}

// Generate runs one dedicated generation turn per document against the
// same immutable record snapshot, dispatched concurrently, and writes
// each document to outputDir under its fixed name. The record's derived
// sections are populated with the synthesized content after all turns
// settle; the generator is the only writer of derived sections.
func (g *Generator) Generate(ctx context.Context, record *model.DesignRecord, outputDir string) (*Result, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	// Snapshot so no generation turn observes a partially-updated record.
	snapshot := *record
	snapshot.DerivedSections = nil

	results := make([]DocumentResult, len(documents))
	contents := make([]string, len(documents))

	var wg sync.WaitGroup
	for i, spec := range documents {
		wg.Add(1)
		go func(i int, spec docSpec) {
			defer wg.Done()
			content, err := g.generateOne(ctx, spec, &snapshot)
			res := DocumentResult{Name: spec.Name, FileName: spec.FileName}
			if err != nil {
				res.Err = err
				metrics.DocumentsGeneratedTotal.WithLabelValues(spec.Name, "error").Inc()
				g.log.Warn("document generation failed",
					zap.String("document", spec.Name),
					zap.Error(err))
				results[i] = res
				return
			}

			path := filepath.Join(outputDir, spec.FileName)
			if err := store.WriteAtomic(path, []byte(content)); err != nil {
				res.Err = fmt.Errorf("write %s: %w", path, err)
				metrics.DocumentsGeneratedTotal.WithLabelValues(spec.Name, "error").Inc()
				results[i] = res
				return
			}

			res.Path = path
			contents[i] = content
			metrics.DocumentsGeneratedTotal.WithLabelValues(spec.Name, "ok").Inc()
			g.log.Info("document written",
				zap.String("document", spec.Name),
				zap.String("path", path))
			results[i] = res
		}(i, spec)
	}
	wg.Wait()

	if record.DerivedSections == nil {
		record.DerivedSections = make(map[string]string)
	}
	for i, spec := range documents {
		if results[i].Err == nil {
			record.DerivedSections[spec.Name] = contents[i]
		}
	}

	return &Result{Documents: results}, nil
}

// generateOne runs a single generation turn, retried once on an
// unavailable remote or malformed response.
func (g *Generator) generateOne(ctx context.Context, spec docSpec, record *model.DesignRecord) (string, error) {
	content, err := g.completeOnce(ctx, spec, record)
	if err != nil && ctx.Err() == nil &&
		(errors.Is(err, llm.ErrRemoteUnavailable) || llm.IsMalformed(err)) {
		g.log.Warn("retrying document generation",
			zap.String("document", spec.Name),
			zap.Error(err))
		content, err = g.completeOnce(ctx, spec, record)
	}
	if err != nil {
		return "", err
	}

	if missing := missingSections(spec, content); len(missing) > 0 {
		g.log.Warn("generated document missing sections",
			zap.String("document", spec.Name),
			zap.Strings("sections", missing))
	}
	return content, nil
}

func (g *Generator) completeOnce(ctx context.Context, spec docSpec, record *model.DesignRecord) (string, error) {
	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		Model: g.cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: string(model.RoleUser), Content: buildPrompt(spec, record)},
		},
		MaxTokens: g.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", &llm.MalformedResponseError{Reason: "empty document"}
	}
	return resp.Content, nil
}
