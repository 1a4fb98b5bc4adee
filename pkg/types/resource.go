package types

// Resource is a downloadable file linked to a post. It has the same shape
// as Attachment but no required fields.
type Resource struct {
	ID                 *int64 `json:"id,omitempty"`
	FileName           string `json:"fileName,omitempty"`
	Content            string `json:"content,omitempty"`
	ContentContentType string `json:"contentContentType,omitempty"`
	PostID             *int64 `json:"postId,omitempty"`
}

// Kind returns KindResource.
func (Resource) Kind() Kind { return KindResource }

// GetID returns the resource ID.
func (r Resource) GetID() *int64 { return r.ID }

// Validate always succeeds.
func (Resource) Validate() error { return nil }

// GetFileName returns the original file name.
func (r Resource) GetFileName() string { return r.FileName }

// SetBinary sets or clears the content field and its content type.
func (r *Resource) SetBinary(field BinaryField, data, contentType string) error {
	if field != FieldContent {
		return ErrUnknownField
	}
	r.Content = data
	r.ContentContentType = contentType
	return nil
}

// Binary returns the content field and its content type.
func (r Resource) Binary(field BinaryField) (string, string, bool) {
	if field != FieldContent {
		return "", "", false
	}
	return r.Content, r.ContentContentType, true
}
