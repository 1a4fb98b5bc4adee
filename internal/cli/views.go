package cli

import (
	"strconv"

	"github.com/mesh-intelligence/sndeals/internal/codec"
	"github.com/mesh-intelligence/sndeals/pkg/sndeals"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// view describes how one entity kind is reached and rendered.
type view[E types.Entity] struct {
	kind    types.Kind
	kit     func(*sndeals.Client) sndeals.Kit[E]
	headers []string
	row     func(E) []string
}

func idText(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func sizeText(data string) string {
	if data == "" {
		return ""
	}
	return codec.FormatByteSize(data)
}

var postView = view[types.Post]{
	kind:    types.KindPost,
	kit:     (*sndeals.Client).Posts,
	headers: []string{"ID", "TITLE", "LOCATION", "STATUS", "CATEGORY"},
	row: func(p types.Post) []string {
		category := p.CategoryDisplayName
		if category == "" {
			category = idText(p.CategoryID)
		}
		return []string{idText(p.ID), truncate(p.Title, 40), p.Location, p.Status, category}
	},
}

var commentView = view[types.Comment]{
	kind:    types.KindComment,
	kit:     (*sndeals.Client).Comments,
	headers: []string{"ID", "COMMENT", "POST"},
	row: func(c types.Comment) []string {
		post := c.PostTitle
		if post == "" {
			post = idText(c.PostID)
		}
		return []string{idText(c.ID), truncate(c.Comment, 60), post}
	},
}

var categoryView = view[types.Category]{
	kind:    types.KindCategory,
	kit:     (*sndeals.Client).Categories,
	headers: []string{"ID", "INTERNAL_ID", "DISPLAY_NAME"},
	row: func(c types.Category) []string {
		return []string{idText(c.ID), c.InternalID, c.DisplayName}
	},
}

var attachmentView = view[types.Attachment]{
	kind:    types.KindAttachment,
	kit:     (*sndeals.Client).Attachments,
	headers: []string{"ID", "FILE_NAME", "TYPE", "SIZE", "POST"},
	row: func(a types.Attachment) []string {
		return []string{idText(a.ID), a.FileName, a.ContentContentType, sizeText(a.Content), idText(a.PostID)}
	},
}

var resourceView = view[types.Resource]{
	kind:    types.KindResource,
	kit:     (*sndeals.Client).Resources,
	headers: []string{"ID", "FILE_NAME", "TYPE", "SIZE", "POST"},
	row: func(r types.Resource) []string {
		return []string{idText(r.ID), r.FileName, r.ContentContentType, sizeText(r.Content), idText(r.PostID)}
	},
}
