package types

// Entity is implemented by every record type the client stores.
// Methods use value receivers so entities can be held by value in store state.
type Entity interface {
	// Kind returns the entity kind, which selects the REST collection.
	Kind() Kind

	// GetID returns the server-assigned identity, or nil for a draft.
	GetID() *int64

	// Validate runs the client-side required-field check.
	// Returns a *ValidationFailure when a required field is empty.
	Validate() error
}

// BinaryField enumerates the binary-valued fields an entity may carry.
// Each binary field travels with a companion "<name>ContentType" field.
type BinaryField int

const (
	// FieldContent is the "content" field of attachments and resources.
	FieldContent BinaryField = iota + 1
)

// binaryFieldNames maps each field to its JSON name.
var binaryFieldNames = map[BinaryField]string{
	FieldContent: "content",
}

// Name returns the JSON name of the field, e.g. "content".
func (f BinaryField) Name() string {
	return binaryFieldNames[f]
}

// ContentTypeName returns the JSON name of the companion content-type field.
func (f BinaryField) ContentTypeName() string {
	if n := f.Name(); n != "" {
		return n + "ContentType"
	}
	return ""
}

func (f BinaryField) String() string {
	if n := f.Name(); n != "" {
		return n
	}
	return "unknown"
}

// ParseBinaryField resolves a field name to its identifier.
// Returns ErrUnknownField for names that are not binary fields.
func ParseBinaryField(name string) (BinaryField, error) {
	for f, n := range binaryFieldNames {
		if n == name {
			return f, nil
		}
	}
	return 0, ErrUnknownField
}

// BinarySetter is implemented by pointer-to-entity types that carry binary
// fields. Passing empty data and content type clears the field.
type BinarySetter interface {
	SetBinary(field BinaryField, data, contentType string) error
}

// BinaryGetter is implemented by entities that carry binary fields.
// ok is false when the entity has no such field.
type BinaryGetter interface {
	Binary(field BinaryField) (data, contentType string, ok bool)
}

// FileNamer is implemented by entities that carry an uploaded file name.
type FileNamer interface {
	GetFileName() string
}

// Int64 returns a pointer to v. Convenience for optional ID fields.
func Int64(v int64) *int64 {
	return &v
}

// requireText appends name to missing when value is empty.
func requireText(missing []string, name, value string) []string {
	if value == "" {
		return append(missing, name)
	}
	return missing
}
