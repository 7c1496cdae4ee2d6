package runner

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/hassmesh/core"
	"github.com/hupe1980/hassmesh/internal/util"
	"github.com/hupe1980/hassmesh/logging"
	"github.com/hupe1980/hassmesh/model"
	"github.com/hupe1980/hassmesh/tool"
)

// Options holds configuration overrides passed to New().
type Options struct {
	// Instructions is the system prompt. It may contain text/template
	// markers rendered against StateFunc's output.
	Instructions string
	// MaxModelCalls limits the number of model calls per run. 0 disables
	// the limit.
	MaxModelCalls int
	// StateFunc supplies template variables for Instructions.
	StateFunc func(ctx context.Context) map[string]any
	// Logger receives run lifecycle events.
	Logger logging.Logger
}

// Result is the outcome of a completed run.
type Result struct {
	RunID      string
	Text       string
	Contents   []core.Content
	ModelCalls int
	Usage      model.TokenUsage
}

// Runner coordinates one model with one tool registry.
type Runner struct {
	model         model.Model
	tools         *tool.Registry
	instructions  string
	maxModelCalls int
	stateFunc     func(ctx context.Context) map[string]any
	logger        logging.Logger
}

// New constructs a Runner with optional overrides.
func New(m model.Model, tools *tool.Registry, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxModelCalls: 10,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		model:         m,
		tools:         tools,
		instructions:  opts.Instructions,
		maxModelCalls: opts.MaxModelCalls,
		stateFunc:     opts.StateFunc,
		logger:        logging.OrNoOp(opts.Logger),
	}
}

// Run executes a single user request to completion.
func (r *Runner) Run(ctx context.Context, userText string) (*Result, error) {
	return r.RunContents(ctx, []core.Content{core.NewTextContent(core.RoleUser, userText)})
}

// RunContents continues the conversation in history until the model stops
// calling tools. The returned Result.Contents holds history plus every turn
// added by the run.
func (r *Runner) RunContents(ctx context.Context, history []core.Content) (*Result, error) {
	runID := core.NewID()
	start := time.Now()
	limiter := core.NewModelLimiter(r.maxModelCalls)

	instructions, err := r.renderInstructions(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Contents: slices.Clone(history)}

	r.logger.Info("runner.run.start", "run_id", runID, "model", r.model.Info().Name)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := limiter.Increment(); err != nil {
			r.logger.Warn("runner.run.limit", "run_id", runID, "max_model_calls", r.maxModelCalls)
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}

		req := model.Request{
			Instructions: instructions,
			Contents:     res.Contents,
			Tools:        r.tools.Definitions(),
		}

		respCh, errCh := r.model.Generate(ctx, req)

		resp, err := model.Collect(ctx, respCh, errCh)
		if err != nil {
			r.logger.Error("runner.model.failed", "run_id", runID, "error", err.Error())
			return nil, fmt.Errorf("model generate: %w", err)
		}

		res.ModelCalls = limiter.Count()
		if resp.Usage != nil {
			res.Usage.PromptTokens += resp.Usage.PromptTokens
			res.Usage.CompletionTokens += resp.Usage.CompletionTokens
			res.Usage.TotalTokens += resp.Usage.TotalTokens
		}

		turn := withCallIDs(resp.Content)
		res.Contents = append(res.Contents, turn)

		calls := turn.FunctionCalls()
		if len(calls) == 0 {
			res.Text = turn.Text()

			r.logger.Info(
				"runner.run.complete",
				"run_id", runID,
				"model_calls", res.ModelCalls,
				"duration_ms", time.Since(start).Milliseconds(),
			)

			return res, nil
		}

		parts := make([]core.Part, 0, len(calls))
		for _, fc := range calls {
			fr := r.tools.Execute(ctx, runID, fc)
			parts = append(parts, core.FunctionResponsePart{FunctionResponse: fr})
		}

		res.Contents = append(res.Contents, core.Content{Role: core.RoleTool, Parts: parts})
	}
}

func (r *Runner) renderInstructions(ctx context.Context) (string, error) {
	if r.instructions == "" {
		return "", nil
	}

	var state map[string]any
	if r.stateFunc != nil {
		state = r.stateFunc(ctx)
	}

	out, err := util.RenderTemplate(r.instructions, state)
	if err != nil {
		return "", fmt.Errorf("instructions: %w", err)
	}

	return out, nil
}

// withCallIDs returns c with the assistant role and a generated ID on every
// function call that arrived without one.
func withCallIDs(c core.Content) core.Content {
	c.Role = core.RoleAssistant
	c.Parts = slices.Clone(c.Parts)

	for i, p := range c.Parts {
		if fcp, ok := p.(core.FunctionCallPart); ok && fcp.FunctionCall.ID == "" {
			fcp.FunctionCall.ID = core.NewID()
			c.Parts[i] = fcp
		}
	}

	return c
}
