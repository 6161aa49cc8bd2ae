// Package models contains the relations of the content store and the view
// records the feed engine produces from them.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the two content item variants.
type Kind string

const (
	// KindPost marks a root-level post.
	KindPost Kind = "post"
	// KindComment marks a comment on a post, optionally replying to another comment.
	KindComment Kind = "comment"
)

// Valid reports whether k is one of the known content kinds.
func (k Kind) Valid() bool {
	return k == KindPost || k == KindComment
}

// ParseKind accepts "post"/"posts" and "comment"/"comments" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "post", "posts":
		return KindPost, nil
	case "comment", "comments":
		return KindComment, nil
	}
	return "", NewInvalidReferenceError(fmt.Sprintf("unknown content kind %q", s))
}

// ContentRef is the stable identity of a content item.
type ContentRef struct {
	Kind Kind `json:"kind" validate:"required,oneof=post comment"`
	ID   uint `json:"id" validate:"required"`
}

func (r ContentRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// PostRef and CommentRef build references without spelling the kind.
func PostRef(id uint) ContentRef    { return ContentRef{Kind: KindPost, ID: id} }
func CommentRef(id uint) ContentRef { return ContentRef{Kind: KindComment, ID: id} }

// ContentItem is the kind-agnostic shape the store returns for posts and comments.
type ContentItem struct {
	Kind      Kind
	ID        uint
	UserID    uint
	PostID    *uint
	ParentID  *uint
	Content   string
	CreatedAt time.Time
}

// Ref returns the identity of the item.
func (c ContentItem) Ref() ContentRef {
	return ContentRef{Kind: c.Kind, ID: c.ID}
}

// EngagementEdge is one like or repost row resolved to its target.
type EngagementEdge struct {
	ID        uint
	UserID    uint
	Target    ContentRef
	CreatedAt time.Time
}
