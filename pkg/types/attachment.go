package types

// Attachment is a file attached to a post. Content holds the base64
// encoding of the file bytes and ContentContentType its MIME type.
type Attachment struct {
	ID                 *int64 `json:"id,omitempty"`
	FileName           string `json:"fileName,omitempty"`
	Content            string `json:"content,omitempty"`
	ContentContentType string `json:"contentContentType,omitempty"`
	PostID             *int64 `json:"postId,omitempty"`
}

// Kind returns KindAttachment.
func (Attachment) Kind() Kind { return KindAttachment }

// GetID returns the attachment ID.
func (a Attachment) GetID() *int64 { return a.ID }

// Validate requires fileName.
func (a Attachment) Validate() error {
	if a.FileName == "" {
		return &ValidationFailure{Kind: KindAttachment, Fields: []string{"fileName"}}
	}
	return nil
}

// GetFileName returns the original file name.
func (a Attachment) GetFileName() string { return a.FileName }

// SetBinary sets or clears the content field and its content type.
func (a *Attachment) SetBinary(field BinaryField, data, contentType string) error {
	if field != FieldContent {
		return ErrUnknownField
	}
	a.Content = data
	a.ContentContentType = contentType
	return nil
}

// Binary returns the content field and its content type.
func (a Attachment) Binary(field BinaryField) (string, string, bool) {
	if field != FieldContent {
		return "", "", false
	}
	return a.Content, a.ContentContentType, true
}
