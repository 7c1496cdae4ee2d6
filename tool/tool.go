// Package tool implements the function calling surface that lets a language
// model invoke hassmesh operations with schema validated arguments,
// consistent error handling and descriptions that guide the model.
package tool

import (
	"fmt"

	"github.com/hupe1980/hassmesh/core"
	"github.com/hupe1980/hassmesh/internal/util"
)

// Tool is a capability exposed to the model.
//
// Implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define a JSON schema for parameters
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is shown to the model to explain when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input.
	Parameters() map[string]any

	// Call executes the tool with already decoded arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeBadRequest = "BAD_REQUEST"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
