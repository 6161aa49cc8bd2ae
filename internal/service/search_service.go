package service

import (
	"context"
	"sort"
	"strings"

	"feedengine/internal/models"
	"feedengine/internal/observability"
)

// Search score weights for users.
const (
	selfBoost     = 1000
	followedBoost = 15
	followerScore = 3
	followeeScore = 1
)

// Default truncation for the combined and quick searches.
const (
	DefaultQuickLimit = 6
	DefaultTopLimit   = 3
)

// SearchService ranks users, posts and comments matching a substring.
type SearchService struct {
	stores     Stores
	engagement *EngagementService
	hydrator   hydrator
	quickLimit int
	topLimit   int
	log        *observability.ServiceLogger
}

func NewSearchService(stores Stores, engagement *EngagementService, quickLimit, topLimit int) *SearchService {
	if quickLimit <= 0 {
		quickLimit = DefaultQuickLimit
	}
	if topLimit <= 0 {
		topLimit = DefaultTopLimit
	}
	return &SearchService{
		stores:     stores,
		engagement: engagement,
		hydrator:   hydrator{stores: stores, engagement: engagement},
		quickLimit: quickLimit,
		topLimit:   topLimit,
		log:        observability.NewServiceLogger("search"),
	}
}

type searchInput struct {
	Text  string
	Limit int `validate:"gte=0"`
}

// prepare validates the call and returns the text to match. Whitespace-only
// text comes back empty, which means an empty result; any other text is
// matched as given, surrounding spaces included.
func (s *SearchService) prepare(ctx context.Context, text string, viewerID uint, limit int) (string, error) {
	if err := validateInput(searchInput{Text: text, Limit: limit}); err != nil {
		return "", err
	}
	if err := checkViewer(ctx, s.stores.Users, viewerID); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return text, nil
}

// Users ranks users whose username or display name contains text. Limit 0
// returns every match.
func (s *SearchService) Users(ctx context.Context, text string, viewerID uint, limit int) (out []models.UserResult, err error) {
	ctx, o := startOp(ctx, s.log, "search_users", viewerID)
	defer func() { o.finish(ctx, -1, len(out), err) }()

	text, err = s.prepare(ctx, text, viewerID, limit)
	if err != nil {
		return nil, err
	}
	return s.users(ctx, text, viewerID, limit)
}

func (s *SearchService) users(ctx context.Context, text string, viewerID uint, limit int) ([]models.UserResult, error) {
	out := []models.UserResult{}
	if text == "" {
		return out, nil
	}

	matches, err := s.stores.Users.Search(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return out, nil
	}
	ids := make([]uint, len(matches))
	for i := range matches {
		ids[i] = matches[i].ID
	}

	followers, err := s.stores.Users.CountFollowers(ctx, ids)
	if err != nil {
		return nil, err
	}
	followees, err := s.stores.Users.CountFollowees(ctx, ids)
	if err != nil {
		return nil, err
	}
	follows, err := followedBy(ctx, s.stores.Follows, viewerID, ids)
	if err != nil {
		return nil, err
	}

	for i := range matches {
		u := &matches[i]
		r := models.UserResult{
			User:          *u.Summary(),
			Followers:     followers[u.ID],
			Following:     followees[u.ID],
			ViewerFollows: follows[u.ID],
			IsViewer:      viewerID != 0 && u.ID == viewerID,
		}
		r.Score = userScore(r)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].User.ID > out[j].User.ID
	})
	return truncate(out, limit), nil
}

func userScore(r models.UserResult) int64 {
	var score int64
	if r.IsViewer {
		score += selfBoost
	}
	if r.ViewerFollows {
		score += followedBoost
	}
	return score + followerScore*r.Followers + followeeScore*r.Following
}

// Posts ranks posts containing text by popularity.
func (s *SearchService) Posts(ctx context.Context, text string, viewerID uint, limit int) ([]models.ContentResult, error) {
	return s.rankContent(ctx, "search_posts", models.KindPost, text, viewerID, limit)
}

// Comments ranks comments containing text by popularity.
func (s *SearchService) Comments(ctx context.Context, text string, viewerID uint, limit int) ([]models.ContentResult, error) {
	return s.rankContent(ctx, "search_comments", models.KindComment, text, viewerID, limit)
}

func (s *SearchService) rankContent(ctx context.Context, name string, kind models.Kind, text string, viewerID uint, limit int) (out []models.ContentResult, err error) {
	ctx, o := startOp(ctx, s.log, name, viewerID)
	defer func() { o.finish(ctx, -1, len(out), err) }()

	text, err = s.prepare(ctx, text, viewerID, limit)
	if err != nil {
		return nil, err
	}
	return s.content(ctx, kind, text, viewerID, limit)
}

func (s *SearchService) content(ctx context.Context, kind models.Kind, text string, viewerID uint, limit int) ([]models.ContentResult, error) {
	out := []models.ContentResult{}
	if text == "" {
		return out, nil
	}

	items, err := s.stores.Content.Search(ctx, kind, text)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return out, nil
	}

	cands := make([]candidate, len(items))
	for i, item := range items {
		cands[i] = authoredCandidate(item)
	}
	refs, authors := distinctRefs(cands)
	eng, err := s.engagement.aggregate(ctx, refs, authors, viewerID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(cands, func(i, j int) bool {
		si, sj := eng[cands[i].ref()].Counts.Rating(), eng[cands[j].ref()].Counts.Rating()
		if si != sj {
			return si > sj
		}
		return cands[i].item.ID > cands[j].item.ID
	})
	cands = truncate(cands, limit)

	entries, err := s.hydrator.build(ctx, cands, viewerID, viewerID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		out = append(out, models.ContentResult{FeedEntry: e, Score: e.Counts.Rating()})
	}
	return out, nil
}

// Top runs every ranker truncated to the combined-search limit.
func (s *SearchService) Top(ctx context.Context, text string, viewerID uint) (res *models.TopSearchResult, err error) {
	ctx, o := startOp(ctx, s.log, "search_top", viewerID)
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Users) + len(res.Posts) + len(res.Comments)
		}
		o.finish(ctx, -1, n, err)
	}()

	text, err = s.prepare(ctx, text, viewerID, s.topLimit)
	if err != nil {
		return nil, err
	}
	res = &models.TopSearchResult{}
	if res.Users, err = s.users(ctx, text, viewerID, s.topLimit); err != nil {
		return nil, err
	}
	if res.Posts, err = s.content(ctx, models.KindPost, text, viewerID, s.topLimit); err != nil {
		return nil, err
	}
	if res.Comments, err = s.content(ctx, models.KindComment, text, viewerID, s.topLimit); err != nil {
		return nil, err
	}
	return res, nil
}

// Quick ranks users truncated to the quick-search limit.
func (s *SearchService) Quick(ctx context.Context, text string, viewerID uint) ([]models.UserResult, error) {
	return s.Users(ctx, text, viewerID, s.quickLimit)
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
