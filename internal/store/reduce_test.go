package store

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// foreignEvent stands in for an unrelated event on a shared bus.
type foreignEvent struct{ kind types.Kind }

func (f foreignEvent) Type() string { return "router/LOCATION_CHANGE" }
func (f foreignEvent) Kind() types.Kind { return f.kind }

func post(id int64, title string) types.Post {
	return types.Post{ID: types.Int64(id), Title: title}
}

func TestReduce_FetchListStarted(t *testing.T) {
	s := Reduce(Initial[types.Post](), Event(Started[types.Post]{Op: OpFetchList}))

	want := Initial[types.Post]()
	want.Loading = true
	assert.Equal(t, want, s)
}

func TestReduce_FetchListSucceeded(t *testing.T) {
	s := Reduce(Initial[types.Post](), Event(Started[types.Post]{Op: OpFetchList}))
	s = Reduce(s, Event(ListSucceeded[types.Post]{Items: []types.Post{post(1, "x")}, Total: 1}))

	assert.False(t, s.Loading)
	assert.Equal(t, []types.Post{post(1, "x")}, s.Entities)
	assert.Equal(t, 1, s.TotalItems)
	assert.NoError(t, s.Err)
}

func TestReduce_CreateFailed(t *testing.T) {
	s := Reduce(Initial[types.Post](), Event(Started[types.Post]{Op: OpCreate}))
	require.True(t, s.Updating)

	s = Reduce(s, Event(Failed[types.Post]{Op: OpCreate, Err: errors.New("409 conflict")}))

	assert.False(t, s.Updating)
	assert.False(t, s.UpdateSuccess)
	assert.EqualError(t, s.Err, "409 conflict")
}

func TestReduce_TransitionTable(t *testing.T) {
	boom := errors.New("boom")
	busy := State[types.Post]{
		Entities:      []types.Post{post(1, "a")},
		Entity:        post(1, "a"),
		Loading:       true,
		Updating:      true,
		UpdateSuccess: true,
		Err:           boom,
		TotalItems:    5,
	}

	tests := []struct {
		name  string
		start State[types.Post]
		event Event
		check func(t *testing.T, s State[types.Post])
	}{
		{
			name:  "fetch one started sets loading and clears error",
			start: busy,
			event: Started[types.Post]{Op: OpFetchOne},
			check: func(t *testing.T, s State[types.Post]) {
				assert.True(t, s.Loading)
				assert.False(t, s.UpdateSuccess)
				assert.NoError(t, s.Err)
			},
		},
		{
			name:  "update started sets updating",
			start: Initial[types.Post](),
			event: Started[types.Post]{Op: OpUpdate},
			check: func(t *testing.T, s State[types.Post]) {
				assert.True(t, s.Updating)
				assert.False(t, s.Loading)
			},
		},
		{
			name:  "delete started sets updating",
			start: Initial[types.Post](),
			event: Started[types.Post]{Op: OpDelete},
			check: func(t *testing.T, s State[types.Post]) {
				assert.True(t, s.Updating)
			},
		},
		{
			name:  "failure clears both flag sets",
			start: busy,
			event: Failed[types.Post]{Op: OpFetchList, Err: boom},
			check: func(t *testing.T, s State[types.Post]) {
				assert.False(t, s.Loading)
				assert.False(t, s.Updating)
				assert.False(t, s.UpdateSuccess)
				assert.Same(t, boom, s.Err)
				assert.Equal(t, busy.Entities, s.Entities, "failure keeps the list")
			},
		},
		{
			name:  "failure without payload still records an error",
			start: Initial[types.Post](),
			event: Failed[types.Post]{Op: OpFetchOne},
			check: func(t *testing.T, s State[types.Post]) {
				assert.ErrorIs(t, s.Err, ErrRequestFailed)
			},
		},
		{
			name:  "fetch one success selects entity",
			start: busy,
			event: OneSucceeded[types.Post]{Item: post(2, "b")},
			check: func(t *testing.T, s State[types.Post]) {
				assert.False(t, s.Loading)
				assert.Equal(t, post(2, "b"), s.Entity)
				assert.True(t, s.Updating, "read success leaves write flags alone")
			},
		},
		{
			name:  "create success selects entity and flags success",
			start: busy,
			event: WriteSucceeded[types.Post]{Op: OpCreate, Item: post(3, "c")},
			check: func(t *testing.T, s State[types.Post]) {
				assert.False(t, s.Updating)
				assert.True(t, s.UpdateSuccess)
				assert.Equal(t, post(3, "c"), s.Entity)
				assert.True(t, s.Loading, "write success leaves read flags alone")
			},
		},
		{
			name:  "update success selects entity",
			start: busy,
			event: WriteSucceeded[types.Post]{Op: OpUpdate, Item: post(1, "renamed")},
			check: func(t *testing.T, s State[types.Post]) {
				assert.True(t, s.UpdateSuccess)
				assert.Equal(t, "renamed", s.Entity.Title)
			},
		},
		{
			name:  "delete success clears entity",
			start: busy,
			event: DeleteSucceeded[types.Post]{},
			check: func(t *testing.T, s State[types.Post]) {
				assert.False(t, s.Updating)
				assert.True(t, s.UpdateSuccess)
				assert.Equal(t, types.Post{}, s.Entity)
			},
		},
		{
			name:  "count success closes read lifecycle only",
			start: busy,
			event: CountSucceeded[types.Post]{Count: 12},
			check: func(t *testing.T, s State[types.Post]) {
				assert.False(t, s.Loading)
				assert.Equal(t, 5, s.TotalItems)
			},
		},
		{
			name:  "list success replaces rather than appends",
			start: busy,
			event: ListSucceeded[types.Post]{Items: []types.Post{post(9, "z")}, Total: 40},
			check: func(t *testing.T, s State[types.Post]) {
				assert.Equal(t, []types.Post{post(9, "z")}, s.Entities)
				assert.Equal(t, 40, s.TotalItems)
			},
		},
		{
			name:  "empty list success yields empty non-nil list",
			start: busy,
			event: ListSucceeded[types.Post]{},
			check: func(t *testing.T, s State[types.Post]) {
				assert.NotNil(t, s.Entities)
				assert.Empty(t, s.Entities)
				assert.Zero(t, s.TotalItems)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Reduce(tt.start, tt.event))
		})
	}
}

func TestReduce_UnrecognizedEventsPassThrough(t *testing.T) {
	s := State[types.Post]{Loading: true, Entity: post(1, "a"), TotalItems: 3}

	assert.Equal(t, s, Reduce(s, Event(foreignEvent{kind: types.KindPost})))
	assert.Equal(t, s, Reduce(s, Event(Started[types.Comment]{Op: OpCreate})), "other kinds are ignored")
	assert.Equal(t, s, Reduce(s, Event(Reset[types.Category]{})))
	assert.Equal(t, s, Reduce(s, Event(SetBinaryField[types.Post]{Field: types.FieldContent, Data: "AA=="})),
		"kinds without binary fields ignore SetBinaryField")
}

func TestReduce_ResetYieldsInitial(t *testing.T) {
	states := []State[types.Attachment]{
		Initial[types.Attachment](),
		{Loading: true, Updating: true, UpdateSuccess: true, Err: errors.New("x"), TotalItems: 3},
		{Entities: []types.Attachment{{FileName: "a"}}, Entity: types.Attachment{Content: "AA=="}, readGen: 9, writeGen: 4},
	}
	for _, s := range states {
		assert.Equal(t, Initial[types.Attachment](), Reduce(s, Event(Reset[types.Attachment]{})))
	}
}

func TestReduce_SetBinaryFieldTouchesOnlyThatField(t *testing.T) {
	before := State[types.Attachment]{
		Entities:   []types.Attachment{{FileName: "x"}},
		Entity:     types.Attachment{ID: types.Int64(4), FileName: "cv.pdf", PostID: types.Int64(2)},
		Loading:    true,
		Updating:   true,
		Err:        errors.New("stale"),
		TotalItems: 8,
	}

	after := Reduce(before, Event(SetBinaryField[types.Attachment]{
		Field:       types.FieldContent,
		Data:        "JVBERi0xLjQ=",
		ContentType: "application/pdf",
	}))

	assert.Equal(t, "JVBERi0xLjQ=", after.Entity.Content)
	assert.Equal(t, "application/pdf", after.Entity.ContentContentType)

	expected := before
	expected.Entity.Content = after.Entity.Content
	expected.Entity.ContentContentType = after.Entity.ContentContentType
	assert.Equal(t, expected, after)
	assert.Empty(t, before.Entity.Content, "input state is not mutated")

	cleared := Reduce(after, Event(SetBinaryField[types.Attachment]{Field: types.FieldContent}))
	assert.Equal(t, before, cleared)
}

func TestReduce_SetBinaryFieldUnknownField(t *testing.T) {
	s := State[types.Resource]{Entity: types.Resource{Content: "AA=="}}
	assert.Equal(t, s, Reduce(s, Event(SetBinaryField[types.Resource]{Field: types.BinaryField(77), Data: "x"})))
}

func TestReduce_DeleteSucceededIdempotent(t *testing.T) {
	s := State[types.Comment]{Entity: types.Comment{ID: types.Int64(1), Comment: "hi"}}
	once := Reduce(s, Event(DeleteSucceeded[types.Comment]{}))
	twice := Reduce(once, Event(DeleteSucceeded[types.Comment]{}))

	assert.Equal(t, types.Comment{}, once.Entity)
	assert.Equal(t, once, twice)
}

func TestReduce_StaleResponsesAreDiscarded(t *testing.T) {
	a := types.Post{ID: types.Int64(1), Title: "A"}
	b := types.Post{ID: types.Int64(2), Title: "B"}

	t.Run("older read completes last", func(t *testing.T) {
		s := Initial[types.Post]()
		s = Reduce(s, Event(Started[types.Post]{Op: OpFetchOne, Gen: 1}))
		s = Reduce(s, Event(Started[types.Post]{Op: OpFetchOne, Gen: 2}))
		s = Reduce(s, Event(OneSucceeded[types.Post]{Item: b, Gen: 2}))
		s = Reduce(s, Event(OneSucceeded[types.Post]{Item: a, Gen: 1}))

		assert.Equal(t, b, s.Entity)
		assert.False(t, s.Loading)
	})

	t.Run("older read completes first", func(t *testing.T) {
		s := Initial[types.Post]()
		s = Reduce(s, Event(Started[types.Post]{Op: OpFetchOne, Gen: 1}))
		s = Reduce(s, Event(Started[types.Post]{Op: OpFetchOne, Gen: 2}))
		s = Reduce(s, Event(OneSucceeded[types.Post]{Item: a, Gen: 1}))
		assert.True(t, s.Loading, "stale completion does not end the newer request")
		assert.Equal(t, types.Post{}, s.Entity)

		s = Reduce(s, Event(OneSucceeded[types.Post]{Item: b, Gen: 2}))
		assert.Equal(t, b, s.Entity)
		assert.False(t, s.Loading)
	})

	t.Run("stale failure is discarded", func(t *testing.T) {
		s := Initial[types.Post]()
		s = Reduce(s, Event(Started[types.Post]{Op: OpFetchList, Gen: 3}))
		s = Reduce(s, Event(Started[types.Post]{Op: OpFetchList, Gen: 4}))
		s = Reduce(s, Event(Failed[types.Post]{Op: OpFetchList, Err: errors.New("late"), Gen: 3}))
		assert.NoError(t, s.Err)
		assert.True(t, s.Loading)
	})

	t.Run("lanes are independent", func(t *testing.T) {
		s := Initial[types.Post]()
		s = Reduce(s, Event(Started[types.Post]{Op: OpFetchOne, Gen: 1}))
		s = Reduce(s, Event(Started[types.Post]{Op: OpCreate, Gen: 2}))
		s = Reduce(s, Event(OneSucceeded[types.Post]{Item: a, Gen: 1}))
		assert.Equal(t, a, s.Entity, "a write does not fence an earlier read")
		assert.False(t, s.Loading)
		assert.True(t, s.Updating)
	})

	t.Run("reset clears marks", func(t *testing.T) {
		s := Initial[types.Post]()
		s = Reduce(s, Event(Started[types.Post]{Op: OpFetchOne, Gen: 5}))
		s = Reduce(s, Event(Reset[types.Post]{}))
		s = Reduce(s, Event(OneSucceeded[types.Post]{Item: a, Gen: 2}))
		assert.Equal(t, a, s.Entity)
	})
}

// TestReduce_ErrorLifecycle feeds random event sequences and checks that
// the error is set right after any Failed and cleared right after any Started.
func TestReduce_ErrorLifecycle(t *testing.T) {
	ops := []Op{OpFetchList, OpFetchOne, OpCreate, OpUpdate, OpDelete, OpCount}
	gen := func(r *rand.Rand) Event {
		op := ops[r.IntN(len(ops))]
		switch r.IntN(8) {
		case 0:
			return Started[types.Post]{Op: op}
		case 1:
			return Failed[types.Post]{Op: op, Err: errors.New("e")}
		case 2:
			return ListSucceeded[types.Post]{Items: []types.Post{post(1, "a")}, Total: 1}
		case 3:
			return OneSucceeded[types.Post]{Item: post(2, "b")}
		case 4:
			return WriteSucceeded[types.Post]{Op: OpCreate, Item: post(3, "c")}
		case 5:
			return DeleteSucceeded[types.Post]{}
		case 6:
			return Reset[types.Post]{}
		default:
			return foreignEvent{kind: types.KindPost}
		}
	}

	r := rand.New(rand.NewPCG(1, 2))
	for run := 0; run < 200; run++ {
		s := Initial[types.Post]()
		for step := 0; step < 30; step++ {
			ev := gen(r)
			s = Reduce(s, ev)
			switch ev.(type) {
			case Failed[types.Post]:
				require.Error(t, s.Err, "error must be set after %s", ev.Type())
			case Started[types.Post]:
				require.NoError(t, s.Err, "error must be cleared after %s", ev.Type())
				require.False(t, s.UpdateSuccess)
			}
		}
	}
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{Started[types.Post]{Op: OpFetchList}, "post/FETCH_LIST_REQUEST"},
		{Failed[types.Comment]{Op: OpCreate}, "comment/CREATE_FAILURE"},
		{ListSucceeded[types.Category]{}, "category/FETCH_LIST_SUCCESS"},
		{OneSucceeded[types.Attachment]{}, "attachment/FETCH_SUCCESS"},
		{WriteSucceeded[types.Resource]{Op: OpUpdate}, "resource/UPDATE_SUCCESS"},
		{DeleteSucceeded[types.Post]{}, "post/DELETE_SUCCESS"},
		{CountSucceeded[types.Post]{}, "post/COUNT_SUCCESS"},
		{SetBinaryField[types.Attachment]{}, "attachment/SET_BLOB"},
		{Reset[types.Post]{}, "post/RESET"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.event.Type())
	}

	assert.True(t, IsTerminal(Failed[types.Post]{Op: OpDelete}))
	assert.True(t, IsTerminal(DeleteSucceeded[types.Post]{}))
	assert.False(t, IsTerminal(Started[types.Post]{Op: OpDelete}))
	assert.False(t, IsTerminal(Reset[types.Post]{}))
	assert.Equal(t, "UNKNOWN", Op(0).String())
}
