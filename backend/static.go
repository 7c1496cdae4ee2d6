package backend

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
)

// Call is a tool invocation recorded by StaticClient.
type Call struct {
	Name string
	Args map[string]any
}

// StaticClient is an in-memory Client useful for tests, examples and local
// development. Tool responses are registered up front; every call is
// recorded.
type StaticClient struct {
	mu        sync.Mutex
	prefix    string
	responses map[string]*Result
	errs      map[string]error
	listErr   error
	calls     []Call
}

// NewStaticClient creates a client whose tool names carry prefix.
func NewStaticClient(prefix string) *StaticClient {
	return &StaticClient{
		prefix:    prefix,
		responses: map[string]*Result{},
		errs:      map[string]error{},
	}
}

// SetLiveContext registers the device dump returned by GetLiveContext.
func (c *StaticClient) SetLiveContext(text string) *StaticClient {
	return c.SetResponse(LiveContextTool, &Result{Content: []Content{{Text: text}}})
}

// SetResponse registers the result for a tool (name without prefix).
func (c *StaticClient) SetResponse(tool string, r *Result) *StaticClient {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.responses[c.prefix+tool] = r
	delete(c.errs, c.prefix+tool)

	return c
}

// SetError makes calls to tool (name without prefix) fail with err.
func (c *StaticClient) SetError(tool string, err error) *StaticClient {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errs[c.prefix+tool] = err

	return c
}

// SetListError makes ListTools fail with err.
func (c *StaticClient) SetListError(err error) *StaticClient {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listErr = err

	return c
}

// ListTools implements Client.
func (c *StaticClient) ListTools(_ context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listErr != nil {
		return nil, c.listErr
	}

	names := make([]string, 0, len(c.responses))
	for name := range c.responses {
		names = append(names, name)
	}

	return names, nil
}

// CallTool implements Client. Unregistered intents succeed with an empty
// payload; an unregistered GetLiveContext reports a backend error.
func (c *StaticClient) CallTool(ctx context.Context, name string, args map[string]any) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, Call{Name: name, Args: maps.Clone(args)})

	if err, ok := c.errs[name]; ok {
		return nil, err
	}

	if r, ok := c.responses[name]; ok {
		return r, nil
	}

	if strings.TrimPrefix(name, c.prefix) == LiveContextTool {
		return &Result{IsError: true, Content: []Content{{Text: fmt.Sprintf("tool %s unavailable", name)}}}, nil
	}

	return &Result{}, nil
}

// Calls returns a copy of every recorded call.
func (c *StaticClient) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Call, len(c.calls))
	copy(out, c.calls)

	return out
}

// CallsTo returns recorded calls to name (full, prefixed name).
func (c *StaticClient) CallsTo(name string) []Call {
	var out []Call
	for _, call := range c.Calls() {
		if call.Name == name {
			out = append(out, call)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (c *StaticClient) Reset() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}
