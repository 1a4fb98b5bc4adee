package store

import (
	"errors"

	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// ErrRequestFailed stands in for a Failed event that carried no error, so
// a failed request always leaves an error in the state.
var ErrRequestFailed = errors.New("request failed")

// State is the known state of one entity kind. Values are never mutated
// in place; Reduce returns a new State.
type State[E types.Entity] struct {
	// Entities is the current list page in server order.
	Entities []E
	// Entity is the last fetched or last written record.
	Entity E
	// Loading is true while a read request is in flight.
	Loading bool
	// Updating is true while a write request is in flight.
	Updating bool
	// UpdateSuccess is true after a completed write until the next request starts.
	UpdateSuccess bool
	// Err is the payload of the last failure, cleared when a request starts.
	Err error
	// TotalItems is the server-reported total for the current list query.
	TotalItems int

	readGen  uint64
	writeGen uint64
}

// Initial returns the state a store starts with and returns to on Reset.
func Initial[E types.Entity]() State[E] {
	return State[E]{Entities: []E{}}
}

// Reduce folds ev into s and returns the next state. Events of other kinds,
// unknown event types, and stale terminal events leave s unchanged.
func Reduce[E types.Entity](s State[E], ev Event) State[E] {
	if s.isStale(ev) {
		return s
	}

	switch e := ev.(type) {
	case Started[E]:
		if e.Op.lane() == laneWrite {
			s.Updating = true
			s.writeGen = max(s.writeGen, e.Gen)
		} else {
			s.Loading = true
			s.readGen = max(s.readGen, e.Gen)
		}
		s.UpdateSuccess = false
		s.Err = nil

	case Failed[E]:
		s.Loading = false
		s.Updating = false
		s.UpdateSuccess = false
		s.Err = e.Err
		if s.Err == nil {
			s.Err = ErrRequestFailed
		}

	case ListSucceeded[E]:
		s.Loading = false
		s.Entities = append([]E{}, e.Items...)
		s.TotalItems = e.Total

	case OneSucceeded[E]:
		s.Loading = false
		s.Entity = e.Item

	case CountSucceeded[E]:
		s.Loading = false

	case WriteSucceeded[E]:
		s.Updating = false
		s.UpdateSuccess = true
		s.Entity = e.Item

	case DeleteSucceeded[E]:
		var zero E
		s.Updating = false
		s.UpdateSuccess = true
		s.Entity = zero

	case SetBinaryField[E]:
		next := s.Entity
		setter, ok := any(&next).(types.BinarySetter)
		if !ok {
			return s
		}
		if err := setter.SetBinary(e.Field, e.Data, e.ContentType); err != nil {
			return s
		}
		s.Entity = next

	case Reset[E]:
		return Initial[E]()
	}

	return s
}

// isStale reports whether ev is a terminal event for a request that has
// been superseded by a later request in the same lane. Generation zero is
// never stale.
func (s State[E]) isStale(ev Event) bool {
	switch e := ev.(type) {
	case Failed[E]:
		return s.behind(e.Op.lane(), e.Gen)
	case ListSucceeded[E]:
		return s.behind(laneRead, e.Gen)
	case OneSucceeded[E]:
		return s.behind(laneRead, e.Gen)
	case CountSucceeded[E]:
		return s.behind(laneRead, e.Gen)
	case WriteSucceeded[E]:
		return s.behind(laneWrite, e.Gen)
	case DeleteSucceeded[E]:
		return s.behind(laneWrite, e.Gen)
	}
	return false
}

func (s State[E]) behind(l lane, gen uint64) bool {
	if gen == 0 {
		return false
	}
	if l == laneWrite {
		return gen < s.writeGen
	}
	return gen < s.readGen
}
