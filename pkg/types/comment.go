package types

// Comment is a reply attached to a post.
type Comment struct {
	ID        *int64 `json:"id,omitempty"`
	Comment   string `json:"comment,omitempty"`
	PostID    *int64 `json:"postId,omitempty"`
	PostTitle string `json:"postTitle,omitempty"`
}

// Kind returns KindComment.
func (Comment) Kind() Kind { return KindComment }

// GetID returns the comment ID.
func (c Comment) GetID() *int64 { return c.ID }

// Validate requires the comment text.
func (c Comment) Validate() error {
	if c.Comment == "" {
		return &ValidationFailure{Kind: KindComment, Fields: []string{"comment"}}
	}
	return nil
}
