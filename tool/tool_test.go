package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hassmesh/backend"
	"github.com/hupe1980/hassmesh/core"
	"github.com/hupe1980/hassmesh/hass"
	"github.com/hupe1980/hassmesh/internal/testutil"
)

type echoArgs struct {
	Text  string `json:"text" description:"Text to echo"`
	Times int    `json:"times,omitempty"`
}

func newToolCtx() *core.ToolContext {
	return core.NewToolContext(context.Background(), "run-1", "fc-1", nil)
}

func TestFunctionTool_Call(t *testing.T) {
	echo := NewFunctionToolFromStruct("echo", "Echo text", echoArgs{}, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["text"], nil
	})

	assert.Equal(t, "echo", echo.Name())
	assert.Equal(t, "Echo text", echo.Description())
	assert.Equal(t, []string{"text"}, echo.Parameters()["required"])

	out, err := echo.Call(newToolCtx(), map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	called := false
	echo := NewFunctionToolFromStruct("echo", "Echo text", echoArgs{}, func(*core.ToolContext, map[string]any) (any, error) {
		called = true
		return nil, nil
	})

	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "missing required", args: map[string]any{}},
		{name: "wrong type", args: map[string]any{"text": 42}},
		{name: "fractional integer", args: map[string]any{"text": "x", "times": 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := echo.Call(newToolCtx(), tt.args)

			var toolErr *ToolError
			require.ErrorAs(t, err, &toolErr)
			assert.Equal(t, CodeValidation, toolErr.Code)
			assert.Equal(t, "echo", toolErr.Tool)
		})
	}

	assert.False(t, called)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	failing := NewFunctionTool("fail", "Always fails", nil, func(*core.ToolContext, map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := failing.Call(newToolCtx(), nil)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "tool error [EXECUTION_ERROR] in fail: boom", toolErr.Error())
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	want := NewToolError("lookup", "no such device", CodeNotFound)

	lookup := NewFunctionTool("lookup", "Lookup", nil, func(*core.ToolContext, map[string]any) (any, error) {
		return nil, want
	})

	_, err := lookup.Call(newToolCtx(), nil)
	assert.Same(t, want, err)
}

func TestRegistry_NamesAndDefinitions(t *testing.T) {
	o := hass.New(backend.NewStaticClient(""))
	r := NewRegistry(nil, NewHassTools(o)...)

	assert.Equal(t, []string{HassControlName, HassGetStateName}, r.Names())

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, HassControlName, defs[0].Function.Name)
	assert.Equal(t, []string{"action", "target"}, defs[0].Function.Parameters["required"])
	assert.Equal(t, []string{}, defs[1].Function.Parameters["required"])

	props := defs[0].Function.Parameters["properties"].(map[string]any)
	assert.Equal(t, "integer", props["value"].(map[string]any)["type"])
}

func TestRegistry_Execute(t *testing.T) {
	panicky := NewFunctionTool("panicky", "Panics", nil, func(*core.ToolContext, map[string]any) (any, error) {
		panic("kaboom")
	})

	r := NewRegistry(nil, panicky)

	t.Run("not found", func(t *testing.T) {
		resp := r.Execute(context.Background(), "run", core.FunctionCall{ID: "1", Name: "missing"})
		assert.Equal(t, "1", resp.ID)
		assert.Contains(t, resp.Error, CodeNotFound)
		assert.Nil(t, resp.Response)
	})

	t.Run("bad json", func(t *testing.T) {
		resp := r.Execute(context.Background(), "run", core.FunctionCall{ID: "2", Name: "panicky", Arguments: "{"})
		assert.Contains(t, resp.Error, CodeBadRequest)
	})

	t.Run("panic recovered", func(t *testing.T) {
		resp := r.Execute(context.Background(), "run", core.FunctionCall{ID: "3", Name: "panicky", Arguments: "{}"})
		assert.Contains(t, resp.Error, "panic: kaboom")
	})

	t.Run("missing call id", func(t *testing.T) {
		resp := r.Execute(context.Background(), "run", core.FunctionCall{Name: "panicky"})
		assert.Contains(t, resp.Error, "missing function call id")
	})
}

func TestHassTools_EndToEnd(t *testing.T) {
	client := backend.NewStaticClient("").SetLiveContext(testutil.GarageAndOffice())
	o := hass.New(client)
	r := NewRegistry(nil, NewHassTools(o)...)
	ctx := context.Background()

	resp := r.Execute(ctx, "run", core.FunctionCall{
		ID:        "1",
		Name:      HassControlName,
		Arguments: `{"action":"set_brightness","target":"office lamp","value":40}`,
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "Done: set_brightness office lamp", resp.Response)

	calls := client.CallsTo("HassLightSet")
	require.Len(t, calls, 1)
	assert.Equal(t, 40, calls[0].Args["brightness"])
	assert.Equal(t, []string{"light"}, calls[0].Args["domain"])

	resp = r.Execute(ctx, "run", core.FunctionCall{
		ID:        "2",
		Name:      HassControlName,
		Arguments: `{"action":"fly","target":"office lamp"}`,
	})
	require.Empty(t, resp.Error)
	assert.Contains(t, resp.ResponseText(), "Unknown action: fly")

	resp = r.Execute(ctx, "run", core.FunctionCall{
		ID:        "3",
		Name:      HassGetStateName,
		Arguments: `{"target":"hallway"}`,
	})
	require.Empty(t, resp.Error)
	assert.Contains(t, resp.ResponseText(), "names: Hallway Thermostat")
	assert.Contains(t, resp.ResponseText(), "state: heat")

	resp = r.Execute(ctx, "run", core.FunctionCall{
		ID:        "4",
		Name:      HassControlName,
		Arguments: `{"target":"office lamp"}`,
	})
	assert.Contains(t, resp.Error, CodeValidation)
}

func TestHassTools_NotConnected(t *testing.T) {
	o := hass.New(nil)
	tools := NewHassTools(o)

	out, err := tools[1].Call(newToolCtx(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, hass.NotConnectedMessage, out)
}
