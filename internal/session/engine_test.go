package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designcraft-ai/design-assistant/internal/config"
	"github.com/designcraft-ai/design-assistant/internal/llm"
	"github.com/designcraft-ai/design-assistant/internal/model"
	"github.com/designcraft-ai/design-assistant/internal/session"
	"github.com/designcraft-ai/design-assistant/internal/store"
	"github.com/designcraft-ai/design-assistant/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Provider:         "scripted",
		MaxTokens:        512,
		MaxTurns:         8,
		TurnTimeout:      5 * time.Second,
		GracePeriod:      50 * time.Millisecond,
		QuestionMarker:   "QUESTION:",
		GatheredMarker:   "GATHERED:",
		CompleteMarker:   "DESIGN COMPLETE",
		OpenDimensionTag: "STILL NEEDED:",
	}
}

func step(content string) llm.ScriptedStep {
	return llm.ScriptedStep{Response: &llm.CompletionResponse{
		Content:    content,
		Model:      "scripted",
		StopReason: "end_turn",
	}}
}

func newEngine(t *testing.T, steps ...llm.ScriptedStep) (*session.Engine, *llm.ScriptedClient, *store.Store) {
	t.Helper()
	client := llm.NewScriptedClient(steps...)
	st, err := store.New(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	return session.NewEngine(client, st, testConfig(), logger.Nop()), client, st
}

const identityTurn = "GATHERED: What is the project name? :: TaskTracker Pro\n" +
	"GATHERED: What type of project is this? :: web\n"

func TestNonInteractiveStopsOnMinimalFields(t *testing.T) {
	eng, _, st := newEngine(t, step(
		identityTurn+"GATHERED: Who are the target users? :: small teams\n",
	))

	conv, path, err := eng.StartSession(context.Background(), session.StartOptions{
		Mode: model.ModeNonInteractive,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, conv.Status)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, "TaskTracker Pro", conv.Record.ProjectName)
	assert.Equal(t, model.ProjectWeb, conv.Record.ProjectType)

	loaded, err := st.Load(path)
	require.NoError(t, err)
	assert.Equal(t, conv, loaded, "persisted transcript must equal the in-memory conversation")
}

func TestCompletionSignalTerminatesLoop(t *testing.T) {
	eng, _, _ := newEngine(t, step(
		identityTurn+"DESIGN COMPLETE\n",
	))

	conv, _, err := eng.StartSession(context.Background(), session.StartOptions{
		Mode: model.ModeInteractive,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, conv.Status)

	final := conv.Turns[0].Messages[len(conv.Turns[0].Messages)-1]
	assert.Equal(t, model.KindFinalResult, final.Kind)
	assert.Equal(t, "complete", final.Content)
}

func TestTurnLoopExhaustion(t *testing.T) {
	// The assistant never signals completion; the loop must terminate
	// after exactly maxTurns turns and keep the record state.
	eng, _, st := newEngine(t,
		step(identityTurn+"QUESTION: Who are the target users?"),
		step("GATHERED: Who are the target users? :: small teams\nQUESTION: What are the constraints?"),
		step("QUESTION: Anything else?"),
	)

	var persistedTurns []int
	eng.AskUser = func(string) (string, error) {
		// Each turn must already be persisted by the time the user is
		// prompted again.
		sums, err := st.List()
		require.NoError(t, err)
		require.Len(t, sums, 1)
		conv, err := st.Load(sums[0].Path)
		require.NoError(t, err)
		persistedTurns = append(persistedTurns, len(conv.Turns))
		return "small teams", nil
	}

	conv, _, err := eng.StartSession(context.Background(), session.StartOptions{
		Mode:     model.ModeInteractive,
		MaxTurns: 3,
	})
	require.NoError(t, err, "exhaustion is not an error")
	assert.Equal(t, model.StatusExhausted, conv.Status)
	assert.Len(t, conv.Turns, 3)
	assert.Equal(t, "TaskTracker Pro", conv.Record.ProjectName,
		"project name set in turn 1 must be preserved unchanged")

	// Persist-after-every-turn: the transcript the user-answer hook saw
	// always reflected the turns completed so far.
	for i, n := range persistedTurns {
		assert.GreaterOrEqual(t, n, i+1)
	}
}

func TestClarificationDoesNotCountAgainstMaxTurns(t *testing.T) {
	eng, _, _ := newEngine(t,
		step("QUESTION: Who are the target users?"),
		step(identityTurn),
	)

	conv, _, err := eng.StartSession(context.Background(), session.StartOptions{
		Mode:     model.ModeNonInteractive,
		MaxTurns: 1,
	})
	require.NoError(t, err)
	// Two turns in the log: the first counted turn plus the
	// clarification sub-prompt, which is exempt from the budget.
	assert.Len(t, conv.Turns, 2)
	assert.Equal(t, "TaskTracker Pro", conv.Record.ProjectName)
	assert.Equal(t, model.ProjectWeb, conv.Record.ProjectType)
	assert.Equal(t, model.StatusExhausted, conv.Status)
}

func TestMalformedResponseRetriedWithSamePrompt(t *testing.T) {
	eng, client, _ := newEngine(t,
		llm.ScriptedStep{Response: &llm.CompletionResponse{Content: "   "}}, // unparseable
		step(identityTurn+"DESIGN COMPLETE"),
	)

	conv, _, err := eng.StartSession(context.Background(), session.StartOptions{
		Mode: model.ModeNonInteractive,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, conv.Status)
	assert.Len(t, conv.Turns, 1)

	calls := client.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t,
		calls[0].Messages[len(calls[0].Messages)-1].Content,
		calls[1].Messages[len(calls[1].Messages)-1].Content,
		"the retry must reuse the same prompt")
}

func TestMalformedTwiceFailsTurn(t *testing.T) {
	eng, _, st := newEngine(t,
		llm.ScriptedStep{Response: &llm.CompletionResponse{Content: ""}},
		llm.ScriptedStep{Response: &llm.CompletionResponse{Content: ""}},
	)

	conv, path, err := eng.StartSession(context.Background(), session.StartOptions{
		Mode: model.ModeNonInteractive,
	})
	require.Error(t, err)

	var terr *session.TurnError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 0, terr.TurnIndex)
	assert.Equal(t, -1, terr.LastGoodTurn)
	assert.True(t, llm.IsMalformed(err))

	assert.Equal(t, model.StatusFailed, conv.Status)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, model.TurnFailed, conv.Turns[0].Status)

	// The failure is persisted too.
	loaded, lerr := st.Load(path)
	require.NoError(t, lerr)
	assert.Equal(t, model.StatusFailed, loaded.Status)
}

func TestRemoteUnavailableRetriedOnce(t *testing.T) {
	eng, client, _ := newEngine(t,
		llm.ScriptedStep{Err: llm.ErrRemoteUnavailable},
		step(identityTurn+"DESIGN COMPLETE"),
	)

	conv, _, err := eng.StartSession(context.Background(), session.StartOptions{
		Mode: model.ModeNonInteractive,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, conv.Status)
	assert.Len(t, client.Calls(), 2)
}

func TestCancellationPersistsCompletedTurnsOnly(t *testing.T) {
	eng, _, st := newEngine(t,
		step(identityTurn+"QUESTION: Who are the target users?"),
		step("GATHERED: more\n"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	eng.AskUser = func(string) (string, error) {
		cancel()
		return "", ctx.Err()
	}

	conv, path, err := eng.StartSession(ctx, session.StartOptions{
		Mode: model.ModeInteractive,
	})
	require.NoError(t, err, "cancellation is a normal terminal state, not an error")
	assert.Equal(t, model.StatusCancelled, conv.Status)
	require.Len(t, conv.Turns, 1, "no in-progress turn may appear half-recorded")
	assert.Equal(t, model.TurnCompleted, conv.Turns[0].Status)

	loaded, err := st.Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, loaded.Status)
	assert.Len(t, loaded.Turns, 1)
}

func TestDeterministicAccumulation(t *testing.T) {
	// Running the same script twice yields the same design record.
	script := func() []llm.ScriptedStep {
		return []llm.ScriptedStep{
			step(identityTurn + "QUESTION: Who are the target users?"),
			step("GATHERED: Who are the target users? :: small teams\nDESIGN COMPLETE"),
		}
	}

	run := func() model.DesignRecord {
		eng, _, _ := newEngine(t, script()...)
		eng.AskUser = func(string) (string, error) { return "", errSkip }
		conv, _, err := eng.StartSession(context.Background(), session.StartOptions{
			Mode: model.ModeNonInteractive,
		})
		require.NoError(t, err)
		return conv.Record
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
}

var errSkip = errors.New("skip")
