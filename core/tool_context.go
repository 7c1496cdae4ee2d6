package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/hassmesh/logging"
)

// ToolContext is handed to every tool invocation. It carries the caller's
// cancellation context, the function call id that correlates the model's
// request with the tool result, and a logger.
type ToolContext struct {
	ctx            context.Context
	runID          string
	functionCallID string

	*loggerAdapter
}

// NewToolContext constructs a tool context for one function call.
func NewToolContext(ctx context.Context, runID, functionCallID string, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}

	return &ToolContext{
		ctx:            ctx,
		runID:          runID,
		functionCallID: functionCallID,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// RunID returns the run the invocation belongs to.
func (tc *ToolContext) RunID() string { return tc.runID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc == nil || tc.functionCallID == "" {
		return fmt.Errorf("invalid ToolContext")
	}

	return nil
}
