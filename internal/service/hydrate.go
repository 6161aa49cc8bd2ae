package service

import (
	"context"
	"time"

	"feedengine/internal/models"
)

// candidate is one row of a feed before hydration: either the content
// itself or a repost or like of it.
type candidate struct {
	item       models.ContentItem
	activity   time.Time
	repostID   uint
	reposterID uint
	likeID     uint
	likedAt    *time.Time
}

func (c candidate) ref() models.ContentRef {
	return c.item.Ref()
}

func authoredCandidate(item models.ContentItem) candidate {
	return candidate{item: item, activity: item.CreatedAt}
}

func repostCandidate(item models.ContentItem, repost models.EngagementEdge) candidate {
	return candidate{
		item:       item,
		activity:   repost.CreatedAt,
		repostID:   repost.ID,
		reposterID: repost.UserID,
	}
}

// repostCandidates pairs repost edges with their loaded targets, dropping
// edges whose target is gone or whose kind is filtered out.
func repostCandidates(edges []models.EngagementEdge, items map[models.ContentRef]models.ContentItem, kind models.Kind) []candidate {
	out := make([]candidate, 0, len(edges))
	for _, e := range edges {
		if kind != "" && e.Target.Kind != kind {
			continue
		}
		item, ok := items[e.Target]
		if !ok {
			continue
		}
		out = append(out, repostCandidate(item, e))
	}
	return out
}

func edgeTargets(edges []models.EngagementEdge) []models.ContentRef {
	refs := make([]models.ContentRef, 0, len(edges))
	for _, e := range edges {
		refs = append(refs, e.Target)
	}
	return refs
}

// distinctRefs returns the content of cands once per reference, with authors.
func distinctRefs(cands []candidate) ([]models.ContentRef, map[models.ContentRef]uint) {
	authors := make(map[models.ContentRef]uint, len(cands))
	refs := make([]models.ContentRef, 0, len(cands))
	for _, c := range cands {
		ref := c.ref()
		if _, ok := authors[ref]; ok {
			continue
		}
		authors[ref] = c.item.UserID
		refs = append(refs, ref)
	}
	return refs, authors
}

// hydrator turns candidates into feed entries.
type hydrator struct {
	stores     Stores
	engagement *EngagementService
}

// build hydrates cands in order. A repost is labelled "You" when its
// reposter is youID, otherwise with the reposter's username.
func (h hydrator) build(ctx context.Context, cands []candidate, viewerID, youID uint) ([]models.FeedEntry, error) {
	entries := make([]models.FeedEntry, 0, len(cands))
	if len(cands) == 0 {
		return entries, nil
	}

	refs, authors := distinctRefs(cands)
	eng, err := h.engagement.aggregate(ctx, refs, authors, viewerID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, 0, len(cands)*2)
	var parentIDs, postIDs []uint
	for _, c := range cands {
		userIDs = append(userIDs, c.item.UserID)
		if c.reposterID != 0 {
			userIDs = append(userIDs, c.reposterID)
		}
		if c.item.Kind == models.KindComment {
			if c.item.ParentID != nil {
				parentIDs = append(parentIDs, *c.item.ParentID)
			}
			if c.item.PostID != nil {
				postIDs = append(postIDs, *c.item.PostID)
			}
		}
	}

	parents, err := h.stores.Content.FindComments(ctx, parentIDs)
	if err != nil {
		return nil, err
	}
	posts, err := h.stores.Content.FindPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range parents {
		userIDs = append(userIDs, p.UserID)
	}
	for _, p := range posts {
		userIDs = append(userIDs, p.UserID)
	}

	users, err := h.stores.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for _, c := range cands {
		e := eng[c.ref()]
		entry := models.FeedEntry{
			Kind:         c.item.Kind,
			ID:           c.item.ID,
			Content:      c.item.Content,
			PostID:       c.item.PostID,
			ParentID:     c.item.ParentID,
			CreatedAt:    c.item.CreatedAt,
			Author:       users[c.item.UserID].Summary(),
			Counts:       e.Counts,
			Viewer:       e.Viewer,
			ActivityDate: c.activity,
			LikedAt:      c.likedAt,
		}
		if c.repostID != 0 {
			entry.RepostedBy = repostLabel(users[c.reposterID], c.reposterID, youID)
		}
		if c.item.Kind == models.KindComment {
			entry.ReplyingTo = replyingTo(c.item, parents, posts, users)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func repostLabel(reposter *models.User, reposterID, youID uint) *models.RepostedBy {
	label := &models.RepostedBy{UserID: reposterID}
	if reposter != nil {
		label.Username = reposter.Username
		label.Label = reposter.Username
	}
	if youID != 0 && reposterID == youID {
		label.Label = "You"
	}
	return label
}

// replyingTo lists the parent comment's author then the root post's author,
// without repeats. Missing relations are skipped.
func replyingTo(item models.ContentItem, parents map[uint]*models.Comment, posts map[uint]*models.Post, users map[uint]*models.User) []string {
	var names []string
	add := func(userID uint) {
		u, ok := users[userID]
		if !ok {
			return
		}
		for _, n := range names {
			if n == u.Username {
				return
			}
		}
		names = append(names, u.Username)
	}
	if item.ParentID != nil {
		if parent, ok := parents[*item.ParentID]; ok {
			add(parent.UserID)
		}
	}
	if item.PostID != nil {
		if post, ok := posts[*item.PostID]; ok {
			add(post.UserID)
		}
	}
	return names
}
