package device

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/hassmesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestCache(clk *fakeClock) *Cache {
	return NewCache(func(o *Options) { o.Now = clk.Now })
}

// -------------------- Domain extraction --------------------

func TestDomainOf(t *testing.T) {
	tests := []struct {
		entityID string
		want     string
	}{
		{"cover.garage_door", "cover"},
		{"media_player.tv.extra", "media_player"},
		{".leading", ""},
		{"nodot", UnknownDomain},
		{"", UnknownDomain},
	}
	for _, tt := range tests {
		t.Run(tt.entityID, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainOf(tt.entityID))
		})
	}
}

// -------------------- Parse --------------------

func TestParse_Blocks(t *testing.T) {
	c := newTestCache(newFakeClock())
	n := c.Parse(testutil.GarageAndOffice())
	assert.Equal(t, 6, n)

	rec, ok := c.Find("garage door left")
	require.True(t, ok)
	assert.Equal(t, "Garage Door Left", rec.Name)
	assert.Equal(t, "cover", rec.Domain)
	assert.Equal(t, "closed", rec.State)
	assert.Equal(t, "Garage", rec.AreaOr(""))

	speaker, ok := c.Find("living room speaker")
	require.True(t, ok)
	assert.Nil(t, speaker.Area)
	assert.Equal(t, "-", speaker.AreaOr("-"))
}

func TestParse_DefaultsAndMalformedLines(t *testing.T) {
	raw := "garbage line without colon\n" +
		"Entity_ID: switch.pump\n" +
		"NAMES:   Pool Pump  \n" +
		"attributes: ignored\n" +
		"\n" +
		"names: Missing Entity\n" +
		"state: on\n" +
		"\n" +
		"entity_id: sensor.orphan\n" +
		"\n\n\n" +
		"entity_id: nodomain\n" +
		"names: Odd Device"

	c := newTestCache(newFakeClock())
	assert.Equal(t, 2, c.Parse(raw))

	pump, ok := c.Find("pool pump")
	require.True(t, ok)
	assert.Equal(t, "switch", pump.Domain)
	assert.Equal(t, "unknown", pump.State)
	assert.Nil(t, pump.Area)

	odd, ok := c.Find("odd device")
	require.True(t, ok, "final block without trailing blank line is flushed")
	assert.Equal(t, UnknownDomain, odd.Domain)
}

func TestParse_LastRecordWinsOnCollision(t *testing.T) {
	raw := testutil.NewLiveContextBuilder().
		Entity("light.a", "Desk").State("on").
		Entity("switch.other", "Other").
		Entity("switch.b", "DESK").State("off").
		Build()

	c := newTestCache(newFakeClock())
	assert.Equal(t, 2, c.Parse(raw))

	rec, ok := c.Find("desk")
	require.True(t, ok)
	assert.Equal(t, "switch.b", rec.EntityID)

	recs := c.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "switch.b", recs[0].EntityID, "position of first occurrence is kept")
	assert.Equal(t, "switch.other", recs[1].EntityID)
}

func TestParse_ReplacesPreviousSnapshot(t *testing.T) {
	c := newTestCache(newFakeClock())
	c.Parse(testutil.GarageAndOffice())
	require.Equal(t, 6, c.Len())

	c.Parse(testutil.NewLiveContextBuilder().Entity("fan.ceiling", "Ceiling Fan").Build())
	assert.Equal(t, 1, c.Len())

	_, ok := c.Find("garage door left")
	assert.False(t, ok)

	c.Parse("")
	assert.Equal(t, 0, c.Len())
}

// -------------------- Staleness --------------------

func TestIsStale(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(clk)
	assert.True(t, c.IsStale(), "never refreshed")

	c.Parse(testutil.GarageAndOffice())
	assert.False(t, c.IsStale())
	assert.Equal(t, clk.Now(), c.RefreshedAt())

	clk.Advance(299 * time.Second)
	assert.False(t, c.IsStale())

	clk.Advance(2 * time.Second)
	assert.True(t, c.IsStale())
}

func TestNewCache_TTLOption(t *testing.T) {
	clk := newFakeClock()
	c := NewCache(func(o *Options) {
		o.Now = clk.Now
		o.TTL = time.Minute
	})
	assert.Equal(t, time.Minute, c.TTL())

	c.Parse("")
	clk.Advance(61 * time.Second)
	assert.True(t, c.IsStale())

	assert.Equal(t, DefaultTTL, NewCache(func(o *Options) { o.TTL = -1 }).TTL())
}

// -------------------- Find --------------------

func TestFind(t *testing.T) {
	c := newTestCache(newFakeClock())
	c.Parse(testutil.GarageAndOffice())

	tests := []struct {
		name   string
		target string
		want   string
		found  bool
	}{
		{"exact", "Office Lamp", "Office Lamp", true},
		{"exact case-insensitive", "OFFICE LAMP", "Office Lamp", true},
		{"name contains target, first in line order", "kitchen", "Kitchen Light", true},
		{"target contains name", "the garage door left please", "Garage Door Left", true},
		{"word overlap", "lamp in office", "Office Lamp", true},
		{"word overlap best score", "speaker living room", "Living Room Speaker", true},
		{"substring picks first in line order", "lamp", "Office Lamp", true},
		{"word overlap tie goes to first", "door lamp", "Garage Door Left", true},
		{"no match", "basement freezer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := c.Find(tt.target)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, rec.Name)
		})
	}
}

func TestFind_KitchenSubstringOrder(t *testing.T) {
	raw := testutil.NewLiveContextBuilder().
		Entity("light.kitchen_light", "kitchen light").
		Entity("light.kitchen_lamp", "kitchen lamp").
		Build()

	c := newTestCache(newFakeClock())
	c.Parse(raw)

	rec, ok := c.Find("kitchen")
	require.True(t, ok)
	assert.Equal(t, "kitchen light", rec.Name)
}

func TestFind_Idempotent(t *testing.T) {
	c := newTestCache(newFakeClock())
	c.Parse(testutil.GarageAndOffice())

	for _, target := range []string{"lamp", "garage", "room", "nothing here"} {
		a, okA := c.Find(target)
		b, okB := c.Find(target)
		assert.Equal(t, okA, okB, target)
		assert.Equal(t, a, b, target)
	}
}

func TestFind_EmptyCache(t *testing.T) {
	c := newTestCache(newFakeClock())
	_, ok := c.Find("anything")
	assert.False(t, ok)
}

// -------------------- Concurrency --------------------

func TestCache_ConcurrentParseAndFind(t *testing.T) {
	c := newTestCache(newFakeClock())
	raw := testutil.GarageAndOffice()
	c.Parse(raw)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Parse(raw)
			}
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, ok := c.Find("office lamp")
				assert.True(t, ok, fmt.Sprintf("reader %d saw a partial snapshot", i))
			}
		}(i)
	}
	wg.Wait()
}
