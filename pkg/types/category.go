package types

// Category groups posts. InternalID is the stable machine name and
// DisplayName is shown to users.
type Category struct {
	ID          *int64 `json:"id,omitempty"`
	InternalID  string `json:"internalId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Kind returns KindCategory.
func (Category) Kind() Kind { return KindCategory }

// GetID returns the category ID.
func (c Category) GetID() *int64 { return c.ID }

// Validate requires internalId and displayName.
func (c Category) Validate() error {
	var missing []string
	missing = requireText(missing, "internalId", c.InternalID)
	missing = requireText(missing, "displayName", c.DisplayName)
	if len(missing) > 0 {
		return &ValidationFailure{Kind: KindCategory, Fields: missing}
	}
	return nil
}
