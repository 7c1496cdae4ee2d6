package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/hassmesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Generate
// emits zero or more partial responses followed by one final response; both
// channels are closed when generation ends.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ScriptedModel replays a fixed sequence of assistant turns, one per
// Generate call, and records every request it receives.
type ScriptedModel struct {
	info  Info
	mu    sync.Mutex
	turns []core.Content
	reqs  []Request
}

// NewScriptedModel constructs a ScriptedModel.
func NewScriptedModel(turns ...core.Content) *ScriptedModel {
	return &ScriptedModel{
		info:  Info{Name: "scripted", Provider: "scripted", SupportsTools: true},
		turns: turns,
	}
}

// Requests returns the requests received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.reqs))
	copy(out, m.reqs)

	return out
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	var (
		turn core.Content
		ok   bool
	)
	if len(m.turns) > 0 {
		turn, m.turns, ok = m.turns[0], m.turns[1:], true
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}

		if !ok {
			errCh <- fmt.Errorf("scripted model: no turns left")
			return
		}

		finish := "stop"
		if len(turn.FunctionCalls()) > 0 {
			finish = "tool_calls"
		}

		turn.Role = core.RoleAssistant
		respCh <- Response{Content: turn, FinishReason: finish}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

// Collect drains a Generate call and returns the final (non-partial)
// response.
func Collect(ctx context.Context, respCh <-chan Response, errCh <-chan error) (Response, error) {
	var (
		final Response
		got   bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final, got = r, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !got {
		return Response{}, fmt.Errorf("model returned no final response")
	}

	return final, nil
}
