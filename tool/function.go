package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/hassmesh/core"
	"github.com/hupe1980/hassmesh/internal/util"
)

// FunctionTool exposes a plain Go function as a Tool.
//
// Arguments are validated against the declared schema before the function
// runs. Failures are normalized to *ToolError:
//
//	VALIDATION_ERROR  -> schema / argument mismatch
//	EXECUTION_ERROR   -> the function returned a non-ToolError error
//
// A *ToolError returned by the function is forwarded unchanged.
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit schema.
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// reflection (see util.CreateSchema for the supported tags).
//
// Example:
//
//	type GetStateArgs struct {
//	  Target string `json:"target,omitempty" description:"Device name"`
//	}
//
//	t := NewFunctionToolFromStruct("hass_get_state", "Get device state", GetStateArgs{}, fn)
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args then invokes the wrapped function.
//
// Logging Fields:
//
//	tool: tool name
//	fc_id: function call identifier
//	duration_ms: execution time in milliseconds
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	start := time.Now()

	toolCtx.LogDebug("tool.call.start", "tool", t.name, "fc_id", toolCtx.FunctionCallID())

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		toolCtx.LogWarn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			toolCtx.LogError("tool.call.error", "tool", t.name, "error", toolErr.Message)

			return nil, toolErr
		}

		toolCtx.LogError("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
		}
	}

	toolCtx.LogInfo("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
