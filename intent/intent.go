package intent

import (
	"errors"
	"maps"
	"slices"
)

// Action is the user facing verb passed in by the tool-calling layer.
type Action = string

// Well-known actions.
const (
	TurnOn         Action = "turn_on"
	TurnOff        Action = "turn_off"
	Toggle         Action = "toggle"
	Open           Action = "open"
	Close          Action = "close"
	Stop           Action = "stop"
	Pause          Action = "pause"
	Play           Action = "play"
	Next           Action = "next"
	Previous       Action = "previous"
	VolumeUp       Action = "volume_up"
	VolumeDown     Action = "volume_down"
	SetVolume      Action = "set_volume"
	Mute           Action = "mute"
	Unmute         Action = "unmute"
	SetBrightness  Action = "set_brightness"
	SetTemperature Action = "set_temperature"
)

// Domains that carry dedicated rules. The empty domain is the wildcard.
const (
	DomainAny         = ""
	DomainCover       = "cover"
	DomainLight       = "light"
	DomainClimate     = "climate"
	DomainMediaPlayer = "media_player"
)

// ErrNotFound is returned by Resolve when no rule matches.
var ErrNotFound = errors.New("intent: no rule for action")

// Key identifies a rule. Domain is DomainAny for the wildcard fallback.
type Key struct {
	Action Action
	Domain string
}

// Intent is a resolved backend operation.
type Intent struct {
	Name string
	// Args are merged into the backend call arguments.
	Args map[string]any
}

var remapRules = map[Key]Action{
	{SetVolume, DomainLight}:            SetBrightness,
	{SetVolume, DomainClimate}:          SetTemperature,
	{SetBrightness, DomainMediaPlayer}:  SetVolume,
	{SetBrightness, DomainClimate}:      SetTemperature,
	{SetTemperature, DomainLight}:       SetBrightness,
	{SetTemperature, DomainMediaPlayer}: SetVolume,
}

var rules = map[Key]Intent{
	{TurnOn, DomainCover}:  {Name: "HassOpenCover"},
	{TurnOff, DomainCover}: {Name: "HassCloseCover"},
	{Open, DomainCover}:    {Name: "HassOpenCover"},
	{Close, DomainCover}:   {Name: "HassCloseCover"},
	{Stop, DomainCover}:    {Name: "HassStopMoving"},

	{SetBrightness, DomainLight}:    {Name: "HassLightSet"},
	{SetTemperature, DomainClimate}: {Name: "HassClimateSetTemperature"},

	{TurnOn, DomainAny}:  {Name: "HassTurnOn"},
	{TurnOff, DomainAny}: {Name: "HassTurnOff"},
	{Toggle, DomainAny}:  {Name: "HassToggle"},
	// open/close on anything that is not a cover
	{Open, DomainAny}:  {Name: "HassTurnOn"},
	{Close, DomainAny}: {Name: "HassTurnOff"},

	{Pause, DomainAny}:      {Name: "HassMediaPause"},
	{Play, DomainAny}:       {Name: "HassMediaUnpause"},
	{Next, DomainAny}:       {Name: "HassMediaNext"},
	{Previous, DomainAny}:   {Name: "HassMediaPrevious"},
	{VolumeUp, DomainAny}:   {Name: "HassSetVolumeRelative", Args: map[string]any{"volume_step": "up"}},
	{VolumeDown, DomainAny}: {Name: "HassSetVolumeRelative", Args: map[string]any{"volume_step": "down"}},
	{SetVolume, DomainAny}:  {Name: "HassSetVolume"},
	{Mute, DomainAny}:       {Name: "HassMediaPlayerMute"},
	{Unmute, DomainAny}:     {Name: "HassMediaPlayerUnmute"},
}

var validActions = func() []Action {
	set := map[Action]struct{}{}
	for k := range rules {
		set[k.Action] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}()

// Remap returns the action that fits domain, or action itself when no
// correction applies. An empty domain never remaps.
func Remap(action Action, domain string) Action {
	if domain == DomainAny {
		return action
	}

	if corrected, ok := remapRules[Key{action, domain}]; ok {
		return corrected
	}

	return action
}

// Resolve looks up the rule for (action, domain), falling back to the
// wildcard rule for action. The returned Args map is a copy.
func Resolve(action Action, domain string) (Intent, error) {
	if domain != DomainAny {
		if in, ok := rules[Key{action, domain}]; ok {
			return in.clone(), nil
		}
	}

	if in, ok := rules[Key{action, DomainAny}]; ok {
		return in.clone(), nil
	}

	return Intent{}, ErrNotFound
}

// ValidActions returns every action that appears in a rule, sorted.
func ValidActions() []Action {
	return slices.Clone(validActions)
}

func (in Intent) clone() Intent {
	return Intent{Name: in.Name, Args: maps.Clone(in.Args)}
}
