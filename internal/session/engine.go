// Package session implements the conversation engine: it drives a
// bounded sequence of turns with the remote assistant, accumulates the
// design record, and persists the transcript after every turn.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/designcraft-ai/design-assistant/internal/config"
	"github.com/designcraft-ai/design-assistant/internal/llm"
	"github.com/designcraft-ai/design-assistant/internal/model"
	"github.com/designcraft-ai/design-assistant/internal/store"
	"github.com/designcraft-ai/design-assistant/pkg/logger"
	"github.com/designcraft-ai/design-assistant/pkg/metrics"
)

// TurnError is returned when a turn fails beyond the retry budget. It
// carries enough context to resume or report: the failed turn index and
// the last successfully completed one.
type TurnError struct {
	TurnIndex    int
	LastGoodTurn int
	Err          error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %d failed (last good turn %d): %v", e.TurnIndex, e.LastGoodTurn, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// Engine orchestrates one conversation session. It exclusively owns the
// conversation and its design record for the session's lifetime.
type Engine struct {
	client llm.Client
	store  *store.Store
	cfg    *config.Config
	log    *logger.Logger

	// OnMessage, when set, observes every message as it is received,
	// for progressive rendering by the caller.
	OnMessage func(model.Message)

	// OnToken, when set, switches remote calls to streaming and
	// receives raw tokens as they arrive.
	OnToken func(token string)

	// AskUser collects an answer from the user in interactive mode.
	// When nil, questions are carried into the next prompt unanswered.
	AskUser func(question string) (string, error)

	// ConfirmComplete asks the user whether the design is complete once
	// the minimal field set is populated (interactive mode only).
	ConfirmComplete func() bool
}

// NewEngine creates a conversation engine.
func NewEngine(client llm.Client, st *store.Store, cfg *config.Config, log *logger.Logger) *Engine {
	return &Engine{client: client, store: st, cfg: cfg, log: log}
}

// StartOptions parameterizes a new session.
type StartOptions struct {
	ProjectName string
	ProjectType model.ProjectType
	Mode        model.Mode
	MaxTurns    int
}

// Start initializes a conversation, issues the first prompt, and runs
// the turn loop to a terminal status. Cancellation is a normal terminal
// state, not an error; the returned conversation always reflects every
// completed turn, each of which was persisted as it closed.
func (e *Engine) Start(ctx context.Context, opts StartOptions) (*model.Conversation, error) {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = e.cfg.MaxTurns
	}
	mode := opts.Mode
	if mode == "" {
		mode = model.ModeInteractive
	}

	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Mode:      mode,
		MaxTurns:  maxTurns,
		Status:    model.StatusActive,
		Record: model.DesignRecord{
			ProjectName: opts.ProjectName,
			ProjectType: opts.ProjectType,
		},
	}
	conv.InitialPrompt = initialPrompt(e.cfg, opts.ProjectName, opts.ProjectType, mode)

	log := e.log.WithSession(conv.ID)
	log.Info("session started",
		zap.String("mode", string(mode)),
		zap.Int("max_turns", maxTurns))

	err := e.runTurnLoop(ctx, conv, log)
	return conv, err
}

func (e *Engine) runTurnLoop(ctx context.Context, conv *model.Conversation, log *logger.Logger) error {
	acc := newAccumulator(e.cfg)
	prompt := conv.InitialPrompt
	turnsUsed := 0
	clarified := false
	clarifying := false

	for {
		if ctx.Err() != nil {
			return e.finish(conv, model.StatusCancelled, log)
		}

		turn, err := e.runRemoteTurn(ctx, conv, prompt)
		if err != nil {
			if ctx.Err() != nil {
				// The in-flight turn was abandoned at cancellation; it
				// must not appear half-recorded.
				return e.finish(conv, model.StatusCancelled, log)
			}
			conv.Turns = append(conv.Turns, turn)
			if ferr := e.finish(conv, model.StatusFailed, log); ferr != nil {
				return ferr
			}
			return &TurnError{
				TurnIndex:    len(conv.Turns) - 1,
				LastGoodTurn: len(conv.Turns) - 2,
				Err:          err,
			}
		}

		conv.Turns = append(conv.Turns, turn)
		facts := acc.apply(&conv.Record, turn.Messages)
		if !clarifying {
			turnsUsed++
		}
		clarifying = false

		if _, err := e.store.Save(conv); err != nil {
			return err
		}
		log.Debug("turn persisted",
			zap.Int("turn", len(conv.Turns)),
			zap.Int("turns_used", turnsUsed),
			zap.Int("answers", len(conv.Record.Answers)))

		if facts.Complete {
			return e.finish(conv, model.StatusCompleted, log)
		}

		// Project identity still unsettled after the first turn: inject
		// a clarification sub-prompt that does not count against the
		// turn budget.
		if turnsUsed == 1 && !clarified &&
			(conv.Record.ProjectName == "" || conv.Record.ProjectType == "") {
			clarified = true
			clarifying = true
			prompt = clarificationPrompt(e.cfg,
				conv.Record.ProjectName == "", conv.Record.ProjectType == "")
			continue
		}

		if turnsUsed >= conv.MaxTurns {
			// Exhaustion is not an error: proceed with whatever design
			// record state exists.
			return e.finish(conv, model.StatusExhausted, log)
		}

		var userAnswers []model.Answer
		if conv.Mode == model.ModeInteractive {
			answers, err := e.collectAnswers(ctx, conv, facts.QuestionsAsked)
			if err != nil {
				return e.finish(conv, model.StatusCancelled, log)
			}
			userAnswers = answers

			if conv.Record.MinimalComplete() && e.ConfirmComplete != nil && e.ConfirmComplete() {
				return e.finish(conv, model.StatusCompleted, log)
			}
		} else if conv.Record.MinimalComplete() {
			return e.finish(conv, model.StatusCompleted, log)
		}

		var seeds []string
		if len(facts.QuestionsAsked) == 0 && len(conv.Record.Answers) == 0 {
			seeds = defaultQuestions
		}
		prompt = followUpPrompt(e.cfg, userAnswers, facts.OpenDimensions, seeds)
	}
}

// collectAnswers asks the user each question posed this turn. Answers
// are appended to the record immediately and echoed back to the
// assistant in the next prompt.
func (e *Engine) collectAnswers(ctx context.Context, conv *model.Conversation, questions []string) ([]model.Answer, error) {
	if e.AskUser == nil {
		return nil, nil
	}
	var answers []model.Answer
	for _, q := range questions {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ans, err := e.AskUser(q)
		if err != nil {
			return nil, err
		}
		ans = strings.TrimSpace(ans)
		if ans == "" {
			continue
		}
		conv.Record.Append(q, ans)
		answers = append(answers, model.Answer{Question: q, Answer: ans})
	}
	return answers, nil
}

// finish marks the conversation terminal and forces a final transcript
// write so partial progress is never lost.
func (e *Engine) finish(conv *model.Conversation, status model.ConversationStatus, log *logger.Logger) error {
	conv.Status = status
	log.Info("session finished",
		zap.String("status", string(status)),
		zap.Int("turns", len(conv.Turns)),
		zap.Int("answers", len(conv.Record.Answers)))
	_, err := e.store.Save(conv)
	return err
}

// runRemoteTurn executes one prompt/response round-trip, retrying once
// on a malformed response or unavailable remote before giving up.
func (e *Engine) runRemoteTurn(ctx context.Context, conv *model.Conversation, prompt string) (model.Turn, error) {
	turn := model.Turn{
		Prompt:    prompt,
		StartedAt: time.Now().UTC(),
	}

	msgs, err := e.exchange(ctx, conv, prompt)
	if err != nil && ctx.Err() == nil &&
		(errors.Is(err, llm.ErrRemoteUnavailable) || llm.IsMalformed(err)) {
		metrics.TurnRetriesTotal.Inc()
		e.log.Warn("retrying turn with same prompt", zap.Error(err))
		msgs, err = e.exchange(ctx, conv, prompt)
	}

	turn.EndedAt = time.Now().UTC()
	if err != nil {
		turn.Status = model.TurnFailed
		if errors.Is(err, context.DeadlineExceeded) {
			turn.Status = model.TurnTimedOut
		}
		turn.Error = err.Error()
		metrics.TurnsTotal.WithLabelValues(string(turn.Status)).Inc()
		return turn, err
	}

	turn.Messages = msgs
	turn.Status = model.TurnCompleted
	metrics.TurnsTotal.WithLabelValues(string(model.TurnCompleted)).Inc()
	return turn, nil
}

// exchange performs the blocking remote call for one turn, bounded by
// the per-turn timeout. A user cancellation lets the in-flight call
// finish within the grace period before it is abandoned.
func (e *Engine) exchange(ctx context.Context, conv *model.Conversation, prompt string) ([]model.Message, error) {
	turnCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.TurnTimeout)
	defer cancel()

	stop := context.AfterFunc(ctx, func() {
		t := time.NewTimer(e.cfg.GracePeriod)
		defer t.Stop()
		select {
		case <-t.C:
			cancel()
		case <-turnCtx.Done():
		}
	})
	defer stop()

	req := &llm.CompletionRequest{
		Model:     e.cfg.Model,
		Messages:  history(conv, prompt),
		MaxTokens: e.cfg.MaxTokens,
	}

	start := time.Now()
	var resp *llm.CompletionResponse
	var err error
	if e.OnToken != nil {
		resp, err = e.client.CompleteStream(turnCtx, req, func(token string, _ int) error {
			e.OnToken(token)
			return nil
		})
	} else {
		resp, err = e.client.Complete(turnCtx, req)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	tokensIn, tokensOut := 0, 0
	if resp != nil {
		tokensIn, tokensOut = resp.TokensIn, resp.TokensOut
	}
	metrics.RecordLLMRequest(e.client.Name(), status, time.Since(start).Seconds(), tokensIn, tokensOut)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(turnCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("turn timed out after %s: %w", e.cfg.TurnTimeout, context.DeadlineExceeded)
		}
		return nil, err
	}

	msgs, err := e.assemble(resp, conv.NextSequence())
	if err != nil {
		return nil, err
	}

	if e.OnMessage != nil {
		for _, m := range msgs {
			e.OnMessage(m)
		}
	}
	return msgs, nil
}

// assemble converts a completion into the ordered message sequence for
// the turn: the assistant text followed by the final-result that closes
// it. The final-result content carries the completion signal.
func (e *Engine) assemble(resp *llm.CompletionResponse, nextSeq int) ([]model.Message, error) {
	if strings.TrimSpace(resp.Content) == "" {
		return nil, &llm.MalformedResponseError{Reason: "empty completion"}
	}

	now := time.Now().UTC()
	signal := "continue"
	if strings.Contains(resp.Content, e.cfg.CompleteMarker) {
		signal = "complete"
	}

	msgs := []model.Message{
		{
			ID:         uuid.Must(uuid.NewV7()).String(),
			Kind:       model.KindText,
			Role:       model.RoleAssistant,
			Content:    resp.Content,
			Sequence:   nextSeq,
			Model:      &resp.Model,
			TokensIn:   &resp.TokensIn,
			TokensOut:  &resp.TokensOut,
			LatencyMs:  &resp.LatencyMs,
			StopReason: &resp.StopReason,
			CreatedAt:  now,
		},
		{
			ID:        uuid.Must(uuid.NewV7()).String(),
			Kind:      model.KindFinalResult,
			Role:      model.RoleAssistant,
			Content:   signal,
			Sequence:  nextSeq + 1,
			CreatedAt: now,
		},
	}

	if err := model.ValidateSequence(msgs, nextSeq); err != nil {
		return nil, &llm.MalformedResponseError{Reason: "sequence violation", Err: err}
	}
	return msgs, nil
}

// history rebuilds the chat context from the turn log plus the prompt
// being dispatched.
func history(conv *model.Conversation, prompt string) []llm.ChatMessage {
	var msgs []llm.ChatMessage
	for _, t := range conv.Turns {
		if t.Status != model.TurnCompleted {
			continue
		}
		msgs = append(msgs, llm.ChatMessage{Role: string(model.RoleUser), Content: t.Prompt})
		var text strings.Builder
		for _, m := range t.Messages {
			if m.Kind == model.KindText {
				if text.Len() > 0 {
					text.WriteString("\n")
				}
				text.WriteString(m.Content)
			}
		}
		if text.Len() > 0 {
			msgs = append(msgs, llm.ChatMessage{Role: string(model.RoleAssistant), Content: text.String()})
		}
	}
	return append(msgs, llm.ChatMessage{Role: string(model.RoleUser), Content: prompt})
}
