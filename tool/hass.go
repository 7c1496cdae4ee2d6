package tool

import (
	"github.com/hupe1980/hassmesh/core"
	"github.com/hupe1980/hassmesh/hass"
	"github.com/hupe1980/hassmesh/internal/util"
)

// Tool names exposed to the model.
const (
	HassControlName  = "hass_control"
	HassGetStateName = "hass_get_state"
)

// HassControlArgs documents the hass_control schema.
type HassControlArgs struct {
	Action string `json:"action" description:"One of: turn_on, turn_off, open, close, toggle, volume_up, volume_down, set_volume, mute, unmute, pause, play, next, previous, set_brightness, set_temperature, stop"`
	Target string `json:"target" description:"Device name, e.g. \"office lamp\" or \"garage door\""`
	Value  *int   `json:"value,omitempty" description:"For set_volume/set_brightness 0-100, for set_temperature degrees"`
}

// HassGetStateArgs documents the hass_get_state schema.
type HassGetStateArgs struct {
	Target string `json:"target,omitempty" description:"Device name to filter, omit for all devices"`
}

// NewHassControlTool exposes Orchestrator.Control.
func NewHassControlTool(o *hass.Orchestrator) *FunctionTool {
	return NewFunctionToolFromStruct(
		HassControlName,
		"Control Home Assistant devices. "+
			"Parameters: action (required: turn_on, turn_off, open, close, "+
			"toggle, volume_up, volume_down, set_volume, mute, unmute, "+
			"pause, play, next, previous, set_brightness, set_temperature, stop), "+
			"target (required: device name), "+
			"value (optional: for set_volume/set_brightness 0-100, "+
			"set_temperature in degrees).",
		HassControlArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			action, _ := args["action"].(string)
			target, _ := args["target"].(string)

			var value *int
			if v, ok := util.IntArg(args, "value"); ok {
				value = &v
			}

			return o.Control(tc.Context(), action, target, value), nil
		},
	)
}

// NewHassGetStateTool exposes Orchestrator.GetState.
func NewHassGetStateTool(o *hass.Orchestrator) *FunctionTool {
	return NewFunctionToolFromStruct(
		HassGetStateName,
		"Get the current state of Home Assistant devices. "+
			"Parameters: target (optional: device name to "+
			"filter, or omit for all devices).",
		HassGetStateArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			target, _ := args["target"].(string)
			return o.GetState(tc.Context(), target), nil
		},
	)
}

// NewHassTools returns both Home Assistant tools bound to o.
func NewHassTools(o *hass.Orchestrator) []Tool {
	return []Tool{NewHassControlTool(o), NewHassGetStateTool(o)}
}
