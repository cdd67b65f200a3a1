package llm

import (
	"context"
	"sync"
)

// ScriptedStep is one canned exchange for a ScriptedClient.
type ScriptedStep struct {
	Response *CompletionResponse
	Err      error
}

// ScriptedClient replays a fixed script of responses. It is used by the
// engine and generator tests and by the --dry-run CLI mode. Safe for
// concurrent use: document generation fans out three requests at once.
type ScriptedClient struct {
	mu       sync.Mutex
	steps    []ScriptedStep
	calls    []*CompletionRequest
	Fallback *CompletionResponse // served once the script is exhausted
}

// NewScriptedClient creates a client that serves steps in order.
func NewScriptedClient(steps ...ScriptedStep) *ScriptedClient {
	return &ScriptedClient{steps: steps}
}

// Name returns the provider name.
func (c *ScriptedClient) Name() string {
	return "scripted"
}

// Calls returns the requests observed so far, in arrival order.
func (c *ScriptedClient) Calls() []*CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*CompletionRequest, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *ScriptedClient) next(req *CompletionRequest) (*CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, req)

	if len(c.steps) == 0 {
		if c.Fallback != nil {
			return c.Fallback, nil
		}
		return nil, remoteErr(c.Name(), context.Canceled)
	}

	step := c.steps[0]
	c.steps = c.steps[1:]
	return step.Response, step.Err
}

// Complete serves the next scripted step.
func (c *ScriptedClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.next(req)
}

// CompleteStream serves the next scripted step, delivering the whole
// content as a single token.
func (c *ScriptedClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := callback(resp.Content, 0); err != nil {
		return nil, err
	}
	return resp, nil
}
