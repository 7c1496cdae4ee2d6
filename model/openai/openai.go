// Package openai implements model.Model on top of the OpenAI Chat
// Completions API with function/tool calling. It adapts hassmesh's
// normalized Request/Response structures into the SDK's message format and
// back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/hassmesh/core"
	"github.com/hupe1980/hassmesh/model"
)

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// APIKey overrides OPENAI_API_KEY when set.
	APIKey string
	// BaseURL points the client at an OpenAI compatible server.
	BaseURL string
}

// Model wraps the OpenAI Chat Completions API behind model.Model.
type Model struct {
	client *openai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.2,
		MaxCompletionTokens: 1024,
	}
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate performs one non-streaming completion.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(req))
		if err != nil {
			errCh <- fmt.Errorf("openai api error: %w", err)
			return
		}

		r, err := toResponse(resp)
		if err != nil {
			errCh <- err
			return
		}

		out <- r
	}()

	return out, errCh
}

// buildParams assembles the request parameters including tool definitions.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            BuildMessages(req),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(req.Tools) > 0 {
		params.Tools = BuildTools(req.Tools)
	}

	return params
}

// BuildTools converts tool definitions into OpenAI tool params.
func BuildTools(defs []model.ToolDefinition) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, len(defs))
	for i, def := range defs {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Function.Name,
				Description: openai.String(def.Function.Description),
				Parameters:  def.Function.Parameters,
			},
		}
	}
	return tools
}

// BuildMessages converts instructions plus normalized contents into chat
// messages. Tool role contents become one tool message per function
// response.
func BuildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, c := range req.Contents {
		switch c.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(c.Text()))
		case core.RoleAssistant:
			calls := c.FunctionCalls()
			if len(calls) == 0 {
				messages = append(messages, openai.AssistantMessage(c.Text()))
				continue
			}

			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(calls))
			for i, fc := range calls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   fc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      fc.Name,
						Arguments: fc.Arguments,
					},
				}
			}

			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case core.RoleTool:
			for _, p := range c.Parts {
				if fr, ok := p.(core.FunctionResponsePart); ok {
					messages = append(messages, openai.ToolMessage(fr.FunctionResponse.ResponseText(), fr.FunctionResponse.ID))
				}
			}
		default:
			if text := c.Text(); text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	return messages
}

func toResponse(resp *openai.ChatCompletion) (model.Response, error) {
	if len(resp.Choices) == 0 {
		return model.Response{}, fmt.Errorf("openai: no choices returned")
	}

	ch0 := resp.Choices[0]

	parts := make([]core.Part, 0, len(ch0.Message.ToolCalls)+1)
	if ch0.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: ch0.Message.Content})
	}

	for _, tc := range ch0.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	return model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// Info returns metadata describing this model.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
