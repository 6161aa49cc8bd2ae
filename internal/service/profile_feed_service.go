package service

import (
	"context"
	"sort"

	"feedengine/internal/models"
	"feedengine/internal/observability"
)

// ProfileFeedService builds a user's liked and linked content.
type ProfileFeedService struct {
	stores   Stores
	hydrator hydrator
	log      *observability.ServiceLogger
}

func NewProfileFeedService(stores Stores, engagement *EngagementService) *ProfileFeedService {
	return &ProfileFeedService{
		stores:   stores,
		hydrator: hydrator{stores: stores, engagement: engagement},
		log:      observability.NewServiceLogger("profile_feed"),
	}
}

// Likes returns one entry per like by the profile user, most recently liked
// first. Items the profile user also reposted carry a "You" repost label.
func (s *ProfileFeedService) Likes(ctx context.Context, profileID, viewerID uint) (entries []models.FeedEntry, err error) {
	ctx, o := startOp(ctx, s.log, "likes", viewerID)
	var cands []candidate
	defer func() { o.finish(ctx, len(cands), len(entries), err) }()

	if err := checkViewer(ctx, s.stores.Users, viewerID); err != nil {
		return nil, err
	}
	profile, err := requireUser(ctx, s.stores.Users, profileID)
	if err != nil {
		return nil, err
	}

	likes, err := s.stores.Engagement.ListLikes(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	if len(likes) == 0 {
		return []models.FeedEntry{}, nil
	}
	items, err := loadItems(ctx, s.stores.Content, edgeTargets(likes))
	if err != nil {
		return nil, err
	}
	ownReposts, err := s.stores.Engagement.ListReposts(ctx, []uint{profile.ID})
	if err != nil {
		return nil, err
	}
	repostOf := make(map[models.ContentRef]models.EngagementEdge, len(ownReposts))
	for _, r := range ownReposts {
		repostOf[r.Target] = r
	}

	for _, like := range likes {
		item, ok := items[like.Target]
		if !ok {
			continue
		}
		likedAt := like.CreatedAt
		c := authoredCandidate(item)
		if r, ok := repostOf[like.Target]; ok {
			c = repostCandidate(item, r)
		}
		c.likeID = like.ID
		c.likedAt = &likedAt
		cands = append(cands, c)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if !a.likedAt.Equal(*b.likedAt) {
			return a.likedAt.After(*b.likedAt)
		}
		return a.likeID > b.likeID
	})

	return s.hydrator.build(ctx, cands, viewerID, profile.ID)
}

// LinkedContent returns content authored by the profile user plus content
// they reposted, ordered by activity date. A self-repost appears both as
// the authored row and as the repost row. An empty kind selects both kinds.
func (s *ProfileFeedService) LinkedContent(ctx context.Context, profileID, viewerID uint, kind models.Kind) (entries []models.FeedEntry, err error) {
	ctx, o := startOp(ctx, s.log, "linked", viewerID)
	var cands []candidate
	defer func() { o.finish(ctx, len(cands), len(entries), err) }()

	if kind != "" && !kind.Valid() {
		return nil, models.NewInvalidReferenceError("unknown content kind " + string(kind))
	}
	if err := checkViewer(ctx, s.stores.Users, viewerID); err != nil {
		return nil, err
	}
	profile, err := requireUser(ctx, s.stores.Users, profileID)
	if err != nil {
		return nil, err
	}

	authored, err := s.stores.Content.ListAuthored(ctx, []uint{profile.ID}, kind)
	if err != nil {
		return nil, err
	}
	for _, item := range authored {
		cands = append(cands, authoredCandidate(item))
	}

	reposts, err := s.stores.Engagement.ListReposts(ctx, []uint{profile.ID})
	if err != nil {
		return nil, err
	}
	if len(reposts) > 0 {
		targets, err := loadItems(ctx, s.stores.Content, edgeTargets(reposts))
		if err != nil {
			return nil, err
		}
		cands = append(cands, repostCandidates(reposts, targets, kind)...)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return linkedBefore(cands[i], cands[j])
	})

	return s.hydrator.build(ctx, cands, viewerID, viewerID)
}

// LinkedPosts is LinkedContent restricted to posts.
func (s *ProfileFeedService) LinkedPosts(ctx context.Context, profileID, viewerID uint) ([]models.FeedEntry, error) {
	return s.LinkedContent(ctx, profileID, viewerID, models.KindPost)
}

// LinkedComments is LinkedContent restricted to comments.
func (s *ProfileFeedService) LinkedComments(ctx context.Context, profileID, viewerID uint) ([]models.FeedEntry, error) {
	return s.LinkedContent(ctx, profileID, viewerID, models.KindComment)
}

// linkedBefore orders by activity desc, posts before comments, id desc,
// then the authored row before a repost row of the same item.
func linkedBefore(a, b candidate) bool {
	if !a.activity.Equal(b.activity) {
		return a.activity.After(b.activity)
	}
	if a.item.Kind != b.item.Kind {
		return a.item.Kind == models.KindPost
	}
	if a.item.ID != b.item.ID {
		return a.item.ID > b.item.ID
	}
	return a.repostID < b.repostID
}
