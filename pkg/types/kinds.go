package types

import (
	"fmt"
	"strings"
)

// Kind identifies a REST-addressable entity type.
type Kind string

// Entity kinds served by the backend.
const (
	KindPost       Kind = "post"
	KindComment    Kind = "comment"
	KindCategory   Kind = "category"
	KindAttachment Kind = "attachment"
	KindResource   Kind = "resource"
)

// Kinds lists all entity kinds in display order.
var Kinds = []Kind{
	KindPost,
	KindComment,
	KindCategory,
	KindAttachment,
	KindResource,
}

// collections maps each kind to its REST collection name.
var collections = map[Kind]string{
	KindPost:       "posts",
	KindComment:    "comments",
	KindCategory:   "categories",
	KindAttachment: "attachments",
	KindResource:   "resources",
}

// Collection returns the REST collection name for the kind, e.g. "posts".
func (k Kind) Collection() string {
	return collections[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := collections[k]
	return ok
}

// String returns the singular kind name.
func (k Kind) String() string {
	return string(k)
}

// ParseKind accepts a singular kind name or its collection name, case
// insensitive. Returns ErrUnknownKind otherwise.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, c := range collections {
		if name == string(k) || name == c {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// KindNames returns the singular names of all kinds, for help and error text.
func KindNames() []string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return names
}
