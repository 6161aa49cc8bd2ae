package models

import "time"

// EngagementCounts holds the per-item tallies. Replies counts direct
// replies only.
type EngagementCounts struct {
	Likes   int64 `json:"likes"`
	Reposts int64 `json:"reposts"`
	Replies int64 `json:"replies"`
}

// Rating is the popularity score shared by the timeline and search.
func (c EngagementCounts) Rating() int64 {
	return c.Reposts*3 + c.Likes*2 + c.Replies
}

// ViewerFlags are relative to the requesting user and all false when
// there is no viewer.
type ViewerFlags struct {
	Liked         bool `json:"viewer_liked"`
	Reposted      bool `json:"viewer_reposted"`
	FollowsAuthor bool `json:"viewer_follows_author"`
}

// Engagement is the aggregator's complete record for one reference.
type Engagement struct {
	Ref      ContentRef       `json:"ref"`
	AuthorID uint             `json:"author_id"`
	Counts   EngagementCounts `json:"counts"`
	Viewer   ViewerFlags      `json:"viewer"`
}

// RepostedBy labels an entry surfaced through a repost.
type RepostedBy struct {
	Label    string `json:"label"`
	Username string `json:"username"`
	UserID   uint   `json:"user_id"`
}

// FeedEntry is one row of a composed feed.
type FeedEntry struct {
	Kind         Kind             `json:"kind"`
	ID           uint             `json:"id"`
	Content      string           `json:"content"`
	PostID       *uint            `json:"post_id,omitempty"`
	ParentID     *uint            `json:"parent_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	Author       *UserSummary     `json:"author"`
	Counts       EngagementCounts `json:"counts"`
	Viewer       ViewerFlags      `json:"viewer"`
	ActivityDate time.Time        `json:"activity_date"`
	RepostedBy   *RepostedBy      `json:"reposted_by"`
	ReplyingTo   []string         `json:"replying_to,omitempty"`
	LikedAt      *time.Time       `json:"liked_at,omitempty"`
}

// Ref returns the identity of the entry's content.
func (e FeedEntry) Ref() ContentRef {
	return ContentRef{Kind: e.Kind, ID: e.ID}
}

// CommentNode is a comment with its author and direct-reply count.
type CommentNode struct {
	ID        uint         `json:"id"`
	PostID    uint         `json:"post_id"`
	ParentID  *uint        `json:"parent_id,omitempty"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	Author    *UserSummary `json:"author"`
	Replies   int64        `json:"replies"`
}

// CommentTree is a comment expanded one level up and one level down.
type CommentTree struct {
	Comment    CommentNode   `json:"comment"`
	Engagement Engagement    `json:"engagement"`
	Parent     *CommentNode  `json:"parent"`
	Replies    []CommentNode `json:"replies"`
}

// UserResult is a scored user search hit.
type UserResult struct {
	User          UserSummary `json:"user"`
	Followers     int64       `json:"followers"`
	Following     int64       `json:"following"`
	ViewerFollows bool        `json:"viewer_follows"`
	IsViewer      bool        `json:"is_viewer"`
	Score         int64       `json:"score"`
}

// ContentResult is a scored post or comment search hit.
type ContentResult struct {
	FeedEntry
	Score int64 `json:"score"`
}

// TopSearchResult bundles the truncated results of every ranker.
type TopSearchResult struct {
	Users    []UserResult    `json:"users"`
	Posts    []ContentResult `json:"posts"`
	Comments []ContentResult `json:"comments"`
}

// EngagedUser is a user who liked or reposted an item.
type EngagedUser struct {
	User          UserSummary `json:"user"`
	At            time.Time   `json:"at"`
	ViewerFollows bool        `json:"viewer_follows"`
}
