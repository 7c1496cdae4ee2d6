package testutil

import "strings"

// LiveContextBuilder provides a fluent helper for constructing live context
// text in tests.
// Example:
//
//	raw := NewLiveContextBuilder().
//		Entity("light.office_lamp", "Office Lamp").State("on").Area("Office").
//		Build()
//
// Chain only the fields you need; each Entity call starts a new block.
type LiveContextBuilder struct {
	header []string
	blocks [][]string
}

// NewLiveContextBuilder creates an empty builder.
func NewLiveContextBuilder() *LiveContextBuilder { return &LiveContextBuilder{} }

// Header adds free-form lines emitted before the first entity block (chainable).
func (b *LiveContextBuilder) Header(lines ...string) *LiveContextBuilder {
	b.header = append(b.header, lines...)
	return b
}

// Entity starts a new block with entity_id and names lines (chainable).
func (b *LiveContextBuilder) Entity(entityID, names string) *LiveContextBuilder {
	b.blocks = append(b.blocks, []string{"entity_id: " + entityID, "names: " + names})
	return b
}

// State appends a state line to the current block (chainable).
func (b *LiveContextBuilder) State(s string) *LiveContextBuilder { return b.Line("state: " + s) }

// Area appends an area line to the current block (chainable).
func (b *LiveContextBuilder) Area(a string) *LiveContextBuilder { return b.Line("area: " + a) }

// Line appends a raw line to the current block, starting one if needed (chainable).
func (b *LiveContextBuilder) Line(l string) *LiveContextBuilder {
	if len(b.blocks) == 0 {
		b.blocks = append(b.blocks, nil)
	}
	last := len(b.blocks) - 1
	b.blocks[last] = append(b.blocks[last], l)
	return b
}

// Build renders the blocks separated by blank lines, without a trailing newline.
func (b *LiveContextBuilder) Build() string {
	parts := make([]string, 0, len(b.blocks)+1)
	if len(b.header) > 0 {
		parts = append(parts, strings.Join(b.header, "\n"))
	}
	for _, blk := range b.blocks {
		parts = append(parts, strings.Join(blk, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// GarageAndOffice returns the fixture used by the end-to-end scenarios: a
// garage door cover, an office lamp, a kitchen pair and a media player.
func GarageAndOffice() string {
	return NewLiveContextBuilder().
		Header("Live Context: An overview of the areas and the devices in this smart home:").
		Entity("cover.garage_door_left", "Garage Door Left").State("closed").Area("Garage").
		Entity("light.office_lamp", "Office Lamp").State("on").Area("Office").
		Entity("light.kitchen_light", "Kitchen Light").State("off").Area("Kitchen").
		Entity("light.kitchen_lamp", "Kitchen Lamp").State("off").Area("Kitchen").
		Entity("media_player.living_room_speaker", "Living Room Speaker").State("playing").
		Entity("climate.hallway", "Hallway Thermostat").State("heat").Area("Hallway").
		Build()
}
