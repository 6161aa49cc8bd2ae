package models

import "time"

// Like is a polymorphic like edge. At most one per actor and target.
type Like struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_like_actor_target" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TargetType Kind      `gorm:"type:varchar(16);not null;uniqueIndex:idx_like_actor_target;index:idx_like_target" json:"target_type"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_like_actor_target;index:idx_like_target" json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repost is a polymorphic repost edge. At most one per actor and target.
type Repost struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_repost_actor_target" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TargetType Kind      `gorm:"type:varchar(16);not null;uniqueIndex:idx_repost_actor_target;index:idx_repost_target" json:"target_type"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_repost_actor_target;index:idx_repost_target" json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Edge converts the like into the store's edge shape.
func (l *Like) Edge() EngagementEdge {
	return EngagementEdge{ID: l.ID, UserID: l.UserID, Target: ContentRef{Kind: l.TargetType, ID: l.TargetID}, CreatedAt: l.CreatedAt}
}

// Edge converts the repost into the store's edge shape.
func (r *Repost) Edge() EngagementEdge {
	return EngagementEdge{ID: r.ID, UserID: r.UserID, Target: ContentRef{Kind: r.TargetType, ID: r.TargetID}, CreatedAt: r.CreatedAt}
}
