package models

import "time"

// Comment is attached to a post and optionally replies to another comment
// of the same post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	Parent    *Comment  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item converts the comment to the kind-agnostic store shape.
func (c *Comment) Item() ContentItem {
	postID := c.PostID
	return ContentItem{
		Kind:      KindComment,
		ID:        c.ID,
		UserID:    c.UserID,
		PostID:    &postID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
