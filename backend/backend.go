// Package backend defines the automation backend collaborator consumed by
// the orchestrator: a tool-call RPC surface plus the conventional
// GetLiveContext tool returning the device dump.
//
// Transports (MCP over HTTP, websockets, ...) live outside this module and
// only need to satisfy Client.
package backend

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/hassmesh/logging"
)

// LiveContextTool is the tool returning the raw device dump.
const LiveContextTool = "GetLiveContext"

// AssistPrefix is the namespace some backends put in front of every intent.
const AssistPrefix = "assist__"

// ErrNotConnected is returned when no backend client is configured.
var ErrNotConnected = errors.New("backend: not connected")

// Content is one element of a tool result payload.
type Content struct {
	Text string `json:"text,omitempty"`
}

// Result is the backend's response to a tool call.
type Result struct {
	IsError bool      `json:"isError"`
	Content []Content `json:"content"`
}

// Texts returns the non-empty text payloads in order.
func (r *Result) Texts() []string {
	if r == nil {
		return nil
	}

	texts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
	}

	return texts
}

// Failed reports a backend side failure. A nil Result is an empty success.
func (r *Result) Failed() bool { return r != nil && r.IsError }

// JoinedText returns Texts joined by a single space.
func (r *Result) JoinedText() string { return strings.Join(r.Texts(), " ") }

// Client is the RPC surface of the automation backend.
type Client interface {
	// ListTools returns the names of every tool the backend exposes.
	ListTools(ctx context.Context) ([]string, error)
	// CallTool invokes a tool. A non-nil error means the call itself failed
	// (transport, protocol); backend side failures set Result.IsError.
	// Implementations should return a non-nil Result on success; callers
	// treat a nil Result as an empty one.
	CallTool(ctx context.Context, name string, args map[string]any) (*Result, error)
}

// DetectPrefix inspects the backend's tool listing and returns AssistPrefix
// when any tool is namespaced with it, otherwise the empty prefix. Listing
// failures are logged and treated as "no prefix".
func DetectPrefix(ctx context.Context, client Client, logger logging.Logger) string {
	logger = logging.OrNoOp(logger)

	if client == nil {
		return ""
	}

	names, err := client.ListTools(ctx)
	if err != nil {
		logger.Warn("backend.prefix.detect_failed", "error", err.Error())
		return ""
	}

	for _, name := range names {
		if strings.HasPrefix(name, AssistPrefix) {
			logger.Info("backend.prefix.detected", "prefix", AssistPrefix)
			return AssistPrefix
		}
	}

	logger.Info("backend.prefix.detected", "prefix", "")

	return ""
}
