// Package store holds per-kind entity state and the pure transition
// function that folds request lifecycle events into it.
//
// Events are generic over the entity type, so a store for one kind passes
// events for any other kind through unchanged. Every request is tagged
// with a generation; terminal events older than the latest request in the
// same lane (reads or writes) are discarded.
package store

import (
	"strings"

	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// Op identifies a gateway operation.
type Op int

// Gateway operations.
const (
	OpFetchList Op = iota + 1
	OpFetchOne
	OpCreate
	OpUpdate
	OpDelete
	OpCount
)

var opNames = map[Op]string{
	OpFetchList: "FETCH_LIST",
	OpFetchOne:  "FETCH",
	OpCreate:    "CREATE",
	OpUpdate:    "UPDATE",
	OpDelete:    "DELETE",
	OpCount:     "COUNT",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "UNKNOWN"
}

// IsWrite reports whether the operation mutates server state.
func (o Op) IsWrite() bool {
	return o == OpCreate || o == OpUpdate || o == OpDelete
}

// lane separates read and write requests for flag handling and fencing.
type lane int

const (
	laneRead lane = iota
	laneWrite
)

func (o Op) lane() lane {
	if o.IsWrite() {
		return laneWrite
	}
	return laneRead
}

// Event is anything published to a store. Type returns a stable name such
// as "post/CREATE_SUCCESS"; Kind returns the entity kind the event is for.
type Event interface {
	Type() string
	Kind() types.Kind
}

// Generational is implemented by request lifecycle events.
type Generational interface {
	Generation() uint64
}

// Failure is implemented by events that carry a request error.
type Failure interface {
	Failure() error
}

func kindOf[E types.Entity]() types.Kind {
	var zero E
	return zero.Kind()
}

func typeName[E types.Entity](suffix string) string {
	return string(kindOf[E]()) + "/" + suffix
}

// Started marks the beginning of a request.
type Started[E types.Entity] struct {
	Op  Op
	Gen uint64
}

func (e Started[E]) Type() string { return typeName[E](e.Op.String() + "_REQUEST") }
func (e Started[E]) Kind() types.Kind { return kindOf[E]() }
func (e Started[E]) Generation() uint64 { return e.Gen }

// Failed ends a request with an error.
type Failed[E types.Entity] struct {
	Op  Op
	Err error
	Gen uint64
}

func (e Failed[E]) Type() string { return typeName[E](e.Op.String() + "_FAILURE") }
func (e Failed[E]) Kind() types.Kind { return kindOf[E]() }
func (e Failed[E]) Generation() uint64 { return e.Gen }
func (e Failed[E]) Failure() error { return e.Err }

// ListSucceeded ends a list fetch. Total is the server-reported count for
// the query, not the length of Items.
type ListSucceeded[E types.Entity] struct {
	Items []E
	Total int
	Gen   uint64
}

func (e ListSucceeded[E]) Type() string { return typeName[E]("FETCH_LIST_SUCCESS") }
func (e ListSucceeded[E]) Kind() types.Kind { return kindOf[E]() }
func (e ListSucceeded[E]) Generation() uint64 { return e.Gen }

// OneSucceeded ends a single-entity fetch.
type OneSucceeded[E types.Entity] struct {
	Item E
	Gen  uint64
}

func (e OneSucceeded[E]) Type() string { return typeName[E]("FETCH_SUCCESS") }
func (e OneSucceeded[E]) Kind() types.Kind { return kindOf[E]() }
func (e OneSucceeded[E]) Generation() uint64 { return e.Gen }

// WriteSucceeded ends a create or update with the entity the server returned.
type WriteSucceeded[E types.Entity] struct {
	Op   Op
	Item E
	Gen  uint64
}

func (e WriteSucceeded[E]) Type() string { return typeName[E](e.Op.String() + "_SUCCESS") }
func (e WriteSucceeded[E]) Kind() types.Kind { return kindOf[E]() }
func (e WriteSucceeded[E]) Generation() uint64 { return e.Gen }

// DeleteSucceeded ends a delete.
type DeleteSucceeded[E types.Entity] struct {
	Gen uint64
}

func (e DeleteSucceeded[E]) Type() string { return typeName[E]("DELETE_SUCCESS") }
func (e DeleteSucceeded[E]) Kind() types.Kind { return kindOf[E]() }
func (e DeleteSucceeded[E]) Generation() uint64 { return e.Gen }

// CountSucceeded ends a count query. The count is returned to the caller;
// the store only closes the read lifecycle.
type CountSucceeded[E types.Entity] struct {
	Count int64
	Gen   uint64
}

func (e CountSucceeded[E]) Type() string { return typeName[E]("COUNT_SUCCESS") }
func (e CountSucceeded[E]) Kind() types.Kind { return kindOf[E]() }
func (e CountSucceeded[E]) Generation() uint64 { return e.Gen }

// SetBinaryField sets a binary field and its content type on the selected
// entity without any network call. Empty Data and ContentType clear it.
type SetBinaryField[E types.Entity] struct {
	Field       types.BinaryField
	Data        string
	ContentType string
}

func (e SetBinaryField[E]) Type() string { return typeName[E]("SET_BLOB") }
func (e SetBinaryField[E]) Kind() types.Kind { return kindOf[E]() }

// Reset returns the store to its initial state.
type Reset[E types.Entity] struct{}

func (e Reset[E]) Type() string { return typeName[E]("RESET") }
func (e Reset[E]) Kind() types.Kind { return kindOf[E]() }

// IsTerminal reports whether ev ends a request lifecycle.
func IsTerminal(ev Event) bool {
	t := ev.Type()
	return strings.HasSuffix(t, "_SUCCESS") || strings.HasSuffix(t, "_FAILURE")
}
