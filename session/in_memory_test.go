package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hassmesh/core"
)

func TestInMemoryStore_SaveAndHistory(t *testing.T) {
	s := NewInMemoryStore()

	h, err := s.History("unknown")
	require.NoError(t, err)
	assert.Empty(t, h)

	contents := []core.Content{
		core.NewTextContent(core.RoleUser, "open the garage"),
		core.NewTextContent(core.RoleAssistant, "Opening."),
	}
	require.NoError(t, s.Save("kitchen-speaker", contents))

	h, err = s.History("kitchen-speaker")
	require.NoError(t, err)
	assert.Equal(t, contents, h)

	h[0] = core.NewTextContent(core.RoleUser, "mutated")
	again, _ := s.History("kitchen-speaker")
	assert.Equal(t, "open the garage", again[0].Text())

	require.NoError(t, s.Delete("kitchen-speaker"))
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryStore_TrimStartsAtUserTurn(t *testing.T) {
	s := NewInMemoryStore(func(o *Options) { o.MaxContents = 3 })

	contents := []core.Content{
		core.NewTextContent(core.RoleUser, "one"),
		{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "1", Name: "hass_control"}}}},
		{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "1", Response: "Done"}}}},
		core.NewTextContent(core.RoleAssistant, "done"),
		core.NewTextContent(core.RoleUser, "two"),
		core.NewTextContent(core.RoleAssistant, "ok"),
	}
	require.NoError(t, s.Save("s", contents))

	h, _ := s.History("s")
	require.Len(t, h, 2)
	assert.Equal(t, "two", h[0].Text())
	assert.Equal(t, "ok", h[1].Text())
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%4)
			_ = s.Save(id, []core.Content{core.NewTextContent(core.RoleUser, id)})
			_, _ = s.History(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, s.Len())
}

func TestInMemoryStore_TrimKeepsLongToolRun(t *testing.T) {
	s := NewInMemoryStore(func(o *Options) { o.MaxContents = 3 })

	call := func(id string) core.Content {
		return core.Content{Role: core.RoleAssistant, Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: "hass_get_state"}}}}
	}
	result := func(id string) core.Content {
		return core.Content{Role: core.RoleTool, Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: id, Response: "ok"}}}}
	}

	contents := []core.Content{
		core.NewTextContent(core.RoleUser, "old"),
		core.NewTextContent(core.RoleAssistant, "fine"),
		core.NewTextContent(core.RoleUser, "check every room"),
		call("1"), result("1"),
		call("2"), result("2"),
		core.NewTextContent(core.RoleAssistant, "all good"),
	}
	require.NoError(t, s.Save("s", contents))

	h, _ := s.History("s")
	require.Len(t, h, 6)
	assert.Equal(t, "check every room", h[0].Text())
	assert.Equal(t, "all good", h[5].Text())
}

func TestTrim_NoUserTurnKeepsTail(t *testing.T) {
	contents := []core.Content{
		core.NewTextContent(core.RoleAssistant, "a"),
		core.NewTextContent(core.RoleAssistant, "b"),
		core.NewTextContent(core.RoleAssistant, "c"),
	}

	out := trim(contents, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Text())
}
