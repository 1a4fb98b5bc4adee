package types

// Post is a classified listing.
type Post struct {
	ID                  *int64 `json:"id,omitempty"`
	Title               string `json:"title,omitempty"`
	Description         string `json:"description,omitempty"`
	Location            string `json:"location,omitempty"`
	Status              string `json:"status,omitempty"`
	CategoryID          *int64 `json:"categoryId,omitempty"`
	CategoryDisplayName string `json:"categoryDisplayName,omitempty"`
}

// Kind returns KindPost.
func (Post) Kind() Kind { return KindPost }

// GetID returns the post ID.
func (p Post) GetID() *int64 { return p.ID }

// Validate requires title, location, and status.
func (p Post) Validate() error {
	var missing []string
	missing = requireText(missing, "title", p.Title)
	missing = requireText(missing, "location", p.Location)
	missing = requireText(missing, "status", p.Status)
	if len(missing) > 0 {
		return &ValidationFailure{Kind: KindPost, Fields: missing}
	}
	return nil
}
