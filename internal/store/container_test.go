package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sndeals/pkg/types"
)

func TestContainer_InitialState(t *testing.T) {
	c := NewContainer[types.Category]()
	assert.Equal(t, Initial[types.Category](), c.State())
	assert.Equal(t, types.KindCategory, c.Kind())
}

func TestContainer_NextGenerationIsMonotonic(t *testing.T) {
	c := NewContainer[types.Post]()

	const workers, perWorker = 8, 100
	seen := make(chan uint64, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				seen <- c.NextGeneration()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for g := range seen {
		assert.NotZero(t, g)
		assert.False(t, unique[g], "generation %d issued twice", g)
		unique[g] = true
	}
	assert.Len(t, unique, workers*perWorker)
}

func TestContainer_DispatchNotifiesListeners(t *testing.T) {
	c := NewContainer[types.Post]()

	var got []string
	c.Subscribe(func(s State[types.Post], ev Event) {
		got = append(got, ev.Type())
	})

	c.Dispatch(Started[types.Post]{Op: OpFetchOne, Gen: c.NextGeneration()})
	c.Dispatch(Started[types.Comment]{Op: OpFetchOne})
	c.Dispatch(OneSucceeded[types.Post]{Item: types.Post{Title: "bike"}, Gen: 1})

	assert.Equal(t, []string{"post/FETCH_REQUEST", "post/FETCH_SUCCESS"}, got)
	assert.Equal(t, "bike", c.State().Entity.Title)
}

func TestContainer_StaleEventsSkipListeners(t *testing.T) {
	c := NewContainer[types.Post]()
	calls := 0
	c.Subscribe(func(State[types.Post], Event) { calls++ })

	first, second := c.NextGeneration(), c.NextGeneration()
	c.Dispatch(Started[types.Post]{Op: OpFetchOne, Gen: first})
	c.Dispatch(Started[types.Post]{Op: OpFetchOne, Gen: second})
	c.Dispatch(OneSucceeded[types.Post]{Item: types.Post{Title: "B"}, Gen: second})
	c.Dispatch(OneSucceeded[types.Post]{Item: types.Post{Title: "A"}, Gen: first})

	assert.Equal(t, 3, calls)
	assert.Equal(t, "B", c.State().Entity.Title)
}

func TestContainer_ListenerMayReadState(t *testing.T) {
	c := NewContainer[types.Post]()
	var loading bool
	c.Subscribe(func(State[types.Post], Event) {
		loading = c.State().Loading
	})
	c.Dispatch(Started[types.Post]{Op: OpFetchList})
	require.True(t, loading)
}

func TestBus_FansOutInOrder(t *testing.T) {
	bus := NewBus()
	posts := NewContainer[types.Post]()
	comments := NewContainer[types.Comment]()

	var order []string
	bus.Register(posts)
	bus.Register(comments)
	bus.Register(HandlerFunc(func(ev Event) { order = append(order, ev.Type()) }))

	bus.Publish(Started[types.Post]{Op: OpCreate})
	bus.Publish(Started[types.Comment]{Op: OpFetchList})
	bus.Publish(foreignEvent{kind: "router"})

	assert.True(t, posts.State().Updating)
	assert.False(t, posts.State().Loading)
	assert.True(t, comments.State().Loading)
	assert.False(t, comments.State().Updating)
	assert.Equal(t, []string{"post/CREATE_REQUEST", "comment/FETCH_LIST_REQUEST", "router/LOCATION_CHANGE"}, order)
}

func TestRoute(t *testing.T) {
	bus := NewBus()
	c := NewContainer[types.Attachment]()
	bus.Register(c)

	d := Route(bus, c)
	g := d.NextGeneration()
	d.Dispatch(Started[types.Attachment]{Op: OpFetchList, Gen: g})
	d.Dispatch(ListSucceeded[types.Attachment]{Items: []types.Attachment{{FileName: "a"}}, Total: 1, Gen: g})

	assert.Equal(t, uint64(2), c.NextGeneration())
	assert.Equal(t, 1, c.State().TotalItems)
}
