// Package hassmesh provides a high-level façade that lets a language model
// drive a Home Assistant installation through two tools, hass_control and
// hass_get_state. Most applications:
//  1. Build a backend.Client for their Home Assistant tool server
//  2. Create a HassMesh via New() with a config and optionally a model
//  3. Either hand Tools() to their own agent loop or call Ask()
//
// The façade wires configuration, logging, tool prefix detection, the
// domain-aware orchestrator, the tool registry and the runner.
package hassmesh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/hassmesh/backend"
	"github.com/hupe1980/hassmesh/config"
	"github.com/hupe1980/hassmesh/core"
	"github.com/hupe1980/hassmesh/hass"
	"github.com/hupe1980/hassmesh/logging"
	"github.com/hupe1980/hassmesh/model"
	"github.com/hupe1980/hassmesh/model/anthropic"
	"github.com/hupe1980/hassmesh/model/openai"
	"github.com/hupe1980/hassmesh/runner"
	"github.com/hupe1980/hassmesh/session"
	"github.com/hupe1980/hassmesh/tool"
)

// ErrNoModel is returned by Ask when no model was configured.
var ErrNoModel = errors.New("hassmesh: no model configured")

// Options configures the HassMesh instance.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// Model drives Ask. Leave nil when only Tools() is needed.
	Model model.Model
	// SessionStore keeps AskSession history. Defaults to an in-memory store.
	SessionStore session.Store
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// Now overrides the device cache clock.
	Now func() time.Time
}

// HassMesh aggregates the orchestrator, its tools and an optional runner.
type HassMesh struct {
	cfg          *config.Config
	orchestrator *hass.Orchestrator
	registry     *tool.Registry
	runner       *runner.Runner
	sessions     session.Store
	logger       logging.Logger
}

// New creates a HassMesh bound to client. When the configured tool prefix is
// "auto" the backend's tool list is consulted once to pick it.
func New(ctx context.Context, client backend.Client, optFns ...func(o *Options)) *HassMesh {
	opts := Options{
		Config:       config.Default(),
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
		Now:          time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)
	cfg := opts.Config

	prefix := cfg.Hass.ToolPrefix
	if prefix == config.PrefixAuto {
		prefix = backend.DetectPrefix(ctx, client, logger)
	}

	orch := hass.New(client, func(o *hass.Options) {
		o.Prefix = prefix
		o.CacheTTL = cfg.Hass.CacheTTL
		o.RefreshTimeout = cfg.Hass.RefreshTimeout
		o.Now = opts.Now
		o.Logger = logger
	})

	h := &HassMesh{
		cfg:          cfg,
		orchestrator: orch,
		registry:     tool.NewRegistry(logger, tool.NewHassTools(orch)...),
		sessions:     opts.SessionStore,
		logger:       logger,
	}

	if opts.Model != nil {
		h.runner = runner.New(opts.Model, h.registry, func(o *runner.Options) {
			o.Instructions = cfg.Model.Instructions
			o.MaxModelCalls = cfg.Model.MaxModelCalls
			o.StateFunc = h.instructionState
			o.Logger = logger
		})
	}

	logger.Info("hassmesh.ready", "prefix", prefix, "cache_ttl", cfg.Hass.CacheTTL.String(), "model", opts.Model != nil)

	return h
}

// Orchestrator exposes the underlying orchestrator.
func (h *HassMesh) Orchestrator() *hass.Orchestrator { return h.orchestrator }

// Registry exposes the tool registry.
func (h *HassMesh) Registry() *tool.Registry { return h.registry }

// Tools returns the hass_control and hass_get_state tools.
func (h *HassMesh) Tools() []tool.Tool {
	names := h.registry.Names()
	tools := make([]tool.Tool, 0, len(names))

	for _, name := range names {
		t, _ := h.registry.Get(name)
		tools = append(tools, t)
	}

	return tools
}

// Control is a shortcut for Orchestrator().Control.
func (h *HassMesh) Control(ctx context.Context, action, target string, value *int) string {
	return h.orchestrator.Control(ctx, action, target, value)
}

// GetState is a shortcut for Orchestrator().GetState.
func (h *HassMesh) GetState(ctx context.Context, target string) string {
	return h.orchestrator.GetState(ctx, target)
}

// Ask runs one natural language request through the model and tools.
func (h *HassMesh) Ask(ctx context.Context, text string) (*runner.Result, error) {
	if h.runner == nil {
		return nil, ErrNoModel
	}

	return h.runner.Run(ctx, text)
}

// AskSession is Ask with conversation memory: earlier turns of sessionID
// are sent along and the completed run is stored back. A failed run leaves
// the stored history untouched.
func (h *HassMesh) AskSession(ctx context.Context, sessionID, text string) (*runner.Result, error) {
	if h.runner == nil {
		return nil, ErrNoModel
	}

	history, err := h.sessions.History(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	history = append(history, core.NewTextContent(core.RoleUser, text))

	res, err := h.runner.RunContents(ctx, history)
	if err != nil {
		return nil, err
	}

	if err := h.sessions.Save(sessionID, res.Contents); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sessionID, err)
	}

	return res, nil
}

// instructionState exposes the cached device names to the instructions
// template, refreshing a stale cache first.
func (h *HassMesh) instructionState(ctx context.Context) map[string]any {
	cache := h.orchestrator.Cache()
	if cache.IsStale() {
		if err := h.orchestrator.Refresh(ctx); err != nil {
			h.logger.Debug("hassmesh.instructions.refresh_failed", "error", err.Error())
		}
	}

	records := cache.Records()
	devices := make([]string, 0, len(records))

	for _, r := range records {
		devices = append(devices, r.Name)
	}

	return map[string]any{"devices": devices}
}

// NewModel builds the provider model named by cfg.
func NewModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
		}), nil
	default:
		return nil, fmt.Errorf("hassmesh: unknown model provider %q", cfg.Provider)
	}
}
