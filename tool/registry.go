package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/hassmesh/core"
	"github.com/hupe1980/hassmesh/logging"
	"github.com/hupe1980/hassmesh/model"
)

// Registry holds the tools offered to a model and executes the function
// calls it returns. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger logging.Logger
}

// NewRegistry creates a registry containing tools.
func NewRegistry(logger logging.Logger, tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}, logger: logging.OrNoOp(logger)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[t.Name()] = t
}

// Get returns the tool called name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]

	return t, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Definitions returns provider neutral declarations for every tool, sorted
// by name.
func (r *Registry) Definitions() []model.ToolDefinition {
	names := r.Names()
	defs := make([]model.ToolDefinition, 0, len(names))

	for _, name := range names {
		t, _ := r.Get(name)
		defs = append(defs, Definition(t))
	}

	return defs
}

// Definition converts a Tool into a model.ToolDefinition.
func Definition(t Tool) model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// Execute runs one function call and always yields a response; failures
// are reported in FunctionResponse.Error. Panics inside the tool are
// recovered.
func (r *Registry) Execute(ctx context.Context, runID string, fc core.FunctionCall) core.FunctionResponse {
	start := time.Now()
	toolCtx := core.NewToolContext(ctx, runID, fc.ID, r.logger)

	var (
		result any
		err    error
	)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = &ToolError{Tool: fc.Name, Message: fmt.Sprintf("panic: %v", rec), Code: CodeExecution, Details: string(debug.Stack())}
				r.logger.Error("tool.function.panic", "function", fc.Name, "recover", rec)
			}
		}()

		result, err = r.execute(toolCtx, fc)
	}()

	r.logger.Info(
		"tool.function.executed",
		"run_id", runID,
		"function", fc.Name,
		"function_call_id", fc.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	resp := core.FunctionResponse{ID: fc.ID, Name: fc.Name, Response: result}
	if err != nil {
		resp.Error = err.Error()
	}

	return resp
}

func (r *Registry) execute(toolCtx *core.ToolContext, fc core.FunctionCall) (any, error) {
	if err := toolCtx.Validate(); err != nil {
		return nil, NewToolError(fc.Name, "missing function call id", CodeBadRequest)
	}

	impl, ok := r.Get(fc.Name)
	if !ok {
		return nil, NewToolError(fc.Name, "tool not found", CodeNotFound)
	}

	argMap := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &argMap); err != nil {
			return nil, NewToolError(fc.Name, fmt.Sprintf("failed to unmarshal args: %v", err), CodeBadRequest)
		}
	}

	return impl.Call(toolCtx, argMap)
}
