// Package anthropic implements model.Model on top of the Anthropic Messages
// API with tool use.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/hassmesh/core"
	"github.com/hupe1980/hassmesh/internal/util"
	"github.com/hupe1980/hassmesh/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind model.Model.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       string(anthropic.ModelClaude3_5Sonnet20241022),
		Temperature: 0.2,
		MaxTokens:   1024,
	}
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate performs one non-streaming Messages call.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       anthropic.Model(m.opts.Model),
			Messages:    BuildMessages(req.Contents),
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}

		if system := buildSystem(req); len(system) > 0 {
			params.System = system
		}

		if len(req.Tools) > 0 {
			params.Tools = BuildTools(req.Tools)
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		var parts []core.Part

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				if text := block.AsText().Text; text != "" {
					parts = append(parts, core.TextPart{Text: text})
				}
			case "tool_use":
				toolBlock := block.AsToolUse()
				args := ""
				if toolBlock.Input != nil {
					if b, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(b)
					}
				}
				parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
					ID:        toolBlock.ID,
					Name:      toolBlock.Name,
					Arguments: args,
				}})
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}

		out <- model.Response{
			ID:           resp.ID,
			Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
			FinishReason: finishReason,
			Usage: &model.TokenUsage{
				PromptTokens:     int(resp.Usage.InputTokens),
				CompletionTokens: int(resp.Usage.OutputTokens),
				TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			},
		}
	}()

	return out, errCh
}

func buildSystem(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam

	if req.Instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.Instructions})
	}

	for _, c := range req.Contents {
		if c.Role != core.RoleSystem {
			continue
		}
		if text := c.Text(); text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: text})
		}
	}

	return blocks
}

// BuildMessages converts normalized contents to Anthropic messages. Tool
// results are sent back in a user turn as tool_result blocks.
func BuildMessages(contents []core.Content) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, c := range contents {
		var blocks []anthropic.ContentBlockParamUnion

		switch c.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			for _, p := range c.Parts {
				switch part := p.(type) {
				case core.TextPart:
					if part.Text != "" {
						blocks = append(blocks, anthropic.NewTextBlock(part.Text))
					}
				case core.FunctionCallPart:
					var input any = map[string]any{}
					if part.FunctionCall.Arguments != "" {
						if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &input); err != nil {
							input = part.FunctionCall.Arguments
						}
					}
					blocks = append(blocks, anthropic.NewToolUseBlock(part.FunctionCall.ID, input, part.FunctionCall.Name))
				}
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
			continue
		case core.RoleTool:
			for _, p := range c.Parts {
				if fr, ok := p.(core.FunctionResponsePart); ok {
					resp := fr.FunctionResponse
					blocks = append(blocks, anthropic.NewToolResultBlock(resp.ID, resp.ResponseText(), resp.Error != ""))
				}
			}
		default:
			if text := c.Text(); text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
		}

		if len(blocks) > 0 {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	return messages
}

// BuildTools converts tool definitions to Anthropic tool params.
func BuildTools(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))

	for i, def := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if params := def.Function.Parameters; params != nil {
			if properties, ok := params["properties"]; ok {
				inputSchema.Properties = properties
			}
			inputSchema.Required = util.RequiredFields(params)
		}

		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, def.Function.Name)
		if def.Function.Description != "" {
			tools[i].OfTool.Description = anthropic.String(def.Function.Description)
		}
	}

	return tools
}

// Info returns metadata describing this model.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
