package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMalformedResponseError(t *testing.T) {
	base := &MalformedResponseError{Reason: "empty completion"}
	wrapped := fmt.Errorf("turn 2: %w", base)

	assert.True(t, IsMalformed(base))
	assert.True(t, IsMalformed(wrapped))
	assert.False(t, IsMalformed(ErrRemoteUnavailable))
	assert.Contains(t, base.Error(), "empty completion")
}

func TestRemoteErrClassification(t *testing.T) {
	err := remoteErr("anthropic", errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "anthropic")
}

func TestScriptedClientServesStepsInOrder(t *testing.T) {
	client := NewScriptedClient(
		ScriptedStep{Response: &CompletionResponse{Content: "one"}},
		ScriptedStep{Err: ErrRemoteUnavailable},
		ScriptedStep{Response: &CompletionResponse{Content: "two"}},
	)

	ctx := context.Background()
	req := &CompletionRequest{Messages: []ChatMessage{{Role: "user", Content: "hi"}}}

	resp, err := client.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "one", resp.Content)

	_, err = client.Complete(ctx, req)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	resp, err = client.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "two", resp.Content)

	assert.Len(t, client.Calls(), 3)
}

func TestScriptedClientStreamDeliversContent(t *testing.T) {
	client := NewScriptedClient(
		ScriptedStep{Response: &CompletionResponse{Content: "streamed"}},
	)

	var got string
	resp, err := client.CompleteStream(context.Background(),
		&CompletionRequest{}, func(token string, _ int) error {
			got += token
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "streamed", got)
	assert.Equal(t, "streamed", resp.Content)
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(Provider("bogus"), "key")
	assert.Error(t, err)
}
