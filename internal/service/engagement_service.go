package service

import (
	"context"

	"feedengine/internal/models"
	"feedengine/internal/observability"
	"feedengine/internal/repository"
)

// EngagementService computes counts and viewer flags for content items and
// lists who engaged with an item.
type EngagementService struct {
	stores Stores
	log    *observability.ServiceLogger
}

func NewEngagementService(stores Stores) *EngagementService {
	return &EngagementService{stores: stores, log: observability.NewServiceLogger("engagement")}
}

// Aggregate returns one record per reference, in input order. References to
// missing content get an all-zero record.
func (s *EngagementService) Aggregate(ctx context.Context, refs []models.ContentRef, viewerID uint) (out []models.Engagement, err error) {
	ctx, o := startOp(ctx, s.log, "aggregate", viewerID)
	defer func() { o.finish(ctx, len(refs), len(out), err) }()

	for _, ref := range refs {
		if err := validateInput(ref); err != nil {
			return nil, err
		}
	}
	if err := checkViewer(ctx, s.stores.Users, viewerID); err != nil {
		return nil, err
	}

	items, err := loadItems(ctx, s.stores.Content, refs)
	if err != nil {
		return nil, err
	}
	authors := make(map[models.ContentRef]uint, len(items))
	for ref, item := range items {
		authors[ref] = item.UserID
	}

	byRef, err := s.aggregate(ctx, refs, authors, viewerID)
	if err != nil {
		return nil, err
	}
	out = make([]models.Engagement, len(refs))
	for i, ref := range refs {
		out[i] = byRef[ref]
	}
	return out, nil
}

// aggregate fills a complete record for every ref. authors maps refs to
// their author for the follows-author flag.
func (s *EngagementService) aggregate(ctx context.Context, refs []models.ContentRef, authors map[models.ContentRef]uint, viewerID uint) (map[models.ContentRef]models.Engagement, error) {
	out := make(map[models.ContentRef]models.Engagement, len(refs))
	for _, ref := range refs {
		out[ref] = models.Engagement{Ref: ref, AuthorID: authors[ref]}
	}
	if len(refs) == 0 {
		return out, nil
	}

	likes, err := s.stores.Engagement.CountLikes(ctx, refs)
	if err != nil {
		return nil, err
	}
	reposts, err := s.stores.Engagement.CountReposts(ctx, refs)
	if err != nil {
		return nil, err
	}
	replies, err := s.stores.Engagement.CountReplies(ctx, refs)
	if err != nil {
		return nil, err
	}

	var liked, reposted map[models.ContentRef]bool
	var follows map[uint]bool
	if viewerID != 0 {
		if liked, err = s.stores.Engagement.LikedBy(ctx, viewerID, refs); err != nil {
			return nil, err
		}
		if reposted, err = s.stores.Engagement.RepostedBy(ctx, viewerID, refs); err != nil {
			return nil, err
		}
		authorIDs := make([]uint, 0, len(authors))
		for _, id := range authors {
			authorIDs = append(authorIDs, id)
		}
		if follows, err = s.stores.Follows.FollowedBy(ctx, viewerID, authorIDs); err != nil {
			return nil, err
		}
	}

	for ref, e := range out {
		e.Counts = models.EngagementCounts{
			Likes:   likes[ref],
			Reposts: reposts[ref],
			Replies: replies[ref],
		}
		if viewerID != 0 {
			e.Viewer = models.ViewerFlags{
				Liked:         liked[ref],
				Reposted:      reposted[ref],
				FollowsAuthor: e.AuthorID != 0 && follows[e.AuthorID],
			}
		}
		out[ref] = e
	}
	return out, nil
}

// Likers lists the users who liked ref, most recent like first.
func (s *EngagementService) Likers(ctx context.Context, ref models.ContentRef, viewerID uint) ([]models.EngagedUser, error) {
	return s.engagedUsers(ctx, "likers", ref, viewerID, s.stores.Engagement.ListLikers)
}

// Reposters lists the users who reposted ref, most recent repost first.
func (s *EngagementService) Reposters(ctx context.Context, ref models.ContentRef, viewerID uint) ([]models.EngagedUser, error) {
	return s.engagedUsers(ctx, "reposters", ref, viewerID, s.stores.Engagement.ListReposters)
}

type edgeLister func(ctx context.Context, ref models.ContentRef) ([]models.EngagementEdge, error)

func (s *EngagementService) engagedUsers(ctx context.Context, name string, ref models.ContentRef, viewerID uint, list edgeLister) (out []models.EngagedUser, err error) {
	ctx, o := startOp(ctx, s.log, name, viewerID)
	defer func() { o.finish(ctx, -1, len(out), err) }()

	if err := validateInput(ref); err != nil {
		return nil, err
	}
	if err := checkViewer(ctx, s.stores.Users, viewerID); err != nil {
		return nil, err
	}
	item, err := s.stores.Content.FindContent(ctx, ref)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, models.NewNotFoundError(kindResource(ref.Kind), ref.ID)
	}

	edges, err := list(ctx, ref)
	if err != nil {
		return nil, err
	}
	userIDs := make([]uint, 0, len(edges))
	for _, e := range edges {
		userIDs = append(userIDs, e.UserID)
	}
	users, err := s.stores.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	follows, err := followedBy(ctx, s.stores.Follows, viewerID, userIDs)
	if err != nil {
		return nil, err
	}

	out = make([]models.EngagedUser, 0, len(edges))
	for _, e := range edges {
		u, ok := users[e.UserID]
		if !ok {
			continue
		}
		out = append(out, models.EngagedUser{
			User:          *u.Summary(),
			At:            e.CreatedAt,
			ViewerFollows: follows[e.UserID],
		})
	}
	return out, nil
}

func followedBy(ctx context.Context, follows repository.FollowRepository, viewerID uint, ids []uint) (map[uint]bool, error) {
	if viewerID == 0 || len(ids) == 0 {
		return map[uint]bool{}, nil
	}
	return follows.FollowedBy(ctx, viewerID, ids)
}

func kindResource(kind models.Kind) string {
	if kind == models.KindComment {
		return "Comment"
	}
	return "Post"
}
