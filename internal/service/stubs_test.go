package service

import (
	"context"
	"fmt"
	"testing"

	"feedengine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	findByIDFn       func(context.Context, uint) (*models.User, error)
	findByUsernameFn func(context.Context, string) (*models.User, error)
	findByIDsFn      func(context.Context, []uint) (map[uint]*models.User, error)
	searchFn         func(context.Context, string) ([]models.User, error)
	countFollowersFn func(context.Context, []uint) (map[uint]int64, error)
	countFolloweesFn func(context.Context, []uint) (map[uint]int64, error)
}

func (s *userRepoStub) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.findByIDFn(ctx, id)
}
func (s *userRepoStub) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findByUsernameFn(ctx, username)
}
func (s *userRepoStub) FindByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	return s.findByIDsFn(ctx, ids)
}
func (s *userRepoStub) Search(ctx context.Context, text string) ([]models.User, error) {
	return s.searchFn(ctx, text)
}
func (s *userRepoStub) CountFollowers(ctx context.Context, ids []uint) (map[uint]int64, error) {
	return s.countFollowersFn(ctx, ids)
}
func (s *userRepoStub) CountFollowees(ctx context.Context, ids []uint) (map[uint]int64, error) {
	return s.countFolloweesFn(ctx, ids)
}

// noopUserRepo knows every user id and names it user<id>.
func noopUserRepo() *userRepoStub {
	named := func(id uint) *models.User {
		return &models.User{ID: id, Username: fmt.Sprintf("user%d", id)}
	}
	return &userRepoStub{
		findByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return named(id), nil },
		findByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		findByIDsFn: func(_ context.Context, ids []uint) (map[uint]*models.User, error) {
			out := map[uint]*models.User{}
			for _, id := range ids {
				out[id] = named(id)
			}
			return out, nil
		},
		searchFn:         func(_ context.Context, _ string) ([]models.User, error) { return nil, nil },
		countFollowersFn: func(_ context.Context, _ []uint) (map[uint]int64, error) { return map[uint]int64{}, nil },
		countFolloweesFn: func(_ context.Context, _ []uint) (map[uint]int64, error) { return map[uint]int64{}, nil },
	}
}

// contentRepoStub is a stub for repository.ContentRepository.
type contentRepoStub struct {
	findPostFn     func(context.Context, uint) (*models.Post, error)
	findCommentFn  func(context.Context, uint) (*models.Comment, error)
	findContentFn  func(context.Context, models.ContentRef) (*models.ContentItem, error)
	findPostsFn    func(context.Context, []uint) (map[uint]*models.Post, error)
	findCommentsFn func(context.Context, []uint) (map[uint]*models.Comment, error)
	listRepliesFn  func(context.Context, uint) ([]models.Comment, error)
	listAuthoredFn func(context.Context, []uint, models.Kind) ([]models.ContentItem, error)
	searchFn       func(context.Context, models.Kind, string) ([]models.ContentItem, error)
}

func (s *contentRepoStub) FindPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.findPostFn(ctx, id)
}
func (s *contentRepoStub) FindComment(ctx context.Context, id uint) (*models.Comment, error) {
	return s.findCommentFn(ctx, id)
}
func (s *contentRepoStub) FindContent(ctx context.Context, ref models.ContentRef) (*models.ContentItem, error) {
	return s.findContentFn(ctx, ref)
}
func (s *contentRepoStub) FindPosts(ctx context.Context, ids []uint) (map[uint]*models.Post, error) {
	return s.findPostsFn(ctx, ids)
}
func (s *contentRepoStub) FindComments(ctx context.Context, ids []uint) (map[uint]*models.Comment, error) {
	return s.findCommentsFn(ctx, ids)
}
func (s *contentRepoStub) ListReplies(ctx context.Context, commentID uint) ([]models.Comment, error) {
	return s.listRepliesFn(ctx, commentID)
}
func (s *contentRepoStub) ListAuthored(ctx context.Context, authorIDs []uint, kind models.Kind) ([]models.ContentItem, error) {
	return s.listAuthoredFn(ctx, authorIDs, kind)
}
func (s *contentRepoStub) Search(ctx context.Context, kind models.Kind, text string) ([]models.ContentItem, error) {
	return s.searchFn(ctx, kind, text)
}

func noopContentRepo() *contentRepoStub {
	return &contentRepoStub{
		findPostFn:    func(_ context.Context, _ uint) (*models.Post, error) { return nil, nil },
		findCommentFn: func(_ context.Context, _ uint) (*models.Comment, error) { return nil, nil },
		findContentFn: func(_ context.Context, _ models.ContentRef) (*models.ContentItem, error) { return nil, nil },
		findPostsFn: func(_ context.Context, _ []uint) (map[uint]*models.Post, error) {
			return map[uint]*models.Post{}, nil
		},
		findCommentsFn: func(_ context.Context, _ []uint) (map[uint]*models.Comment, error) {
			return map[uint]*models.Comment{}, nil
		},
		listRepliesFn:  func(_ context.Context, _ uint) ([]models.Comment, error) { return nil, nil },
		listAuthoredFn: func(_ context.Context, _ []uint, _ models.Kind) ([]models.ContentItem, error) { return nil, nil },
		searchFn:       func(_ context.Context, _ models.Kind, _ string) ([]models.ContentItem, error) { return nil, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	listFolloweesFn func(context.Context, uint) ([]uint, error)
	listFollowersFn func(context.Context, uint) ([]uint, error)
	followedByFn    func(context.Context, uint, []uint) (map[uint]bool, error)
}

func (s *followRepoStub) ListFollowees(ctx context.Context, userID uint) ([]uint, error) {
	return s.listFolloweesFn(ctx, userID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint) ([]uint, error) {
	return s.listFollowersFn(ctx, userID)
}
func (s *followRepoStub) FollowedBy(ctx context.Context, followerID uint, ids []uint) (map[uint]bool, error) {
	return s.followedByFn(ctx, followerID, ids)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		listFolloweesFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		listFollowersFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		followedByFn:    func(_ context.Context, _ uint, _ []uint) (map[uint]bool, error) { return map[uint]bool{}, nil },
	}
}

type refCounts = map[models.ContentRef]int64
type refFlags = map[models.ContentRef]bool

// engagementRepoStub is a stub for repository.EngagementRepository.
type engagementRepoStub struct {
	countLikesFn    func(context.Context, []models.ContentRef) (refCounts, error)
	countRepostsFn  func(context.Context, []models.ContentRef) (refCounts, error)
	countRepliesFn  func(context.Context, []models.ContentRef) (refCounts, error)
	likedByFn       func(context.Context, uint, []models.ContentRef) (refFlags, error)
	repostedByFn    func(context.Context, uint, []models.ContentRef) (refFlags, error)
	listLikesFn     func(context.Context, uint) ([]models.EngagementEdge, error)
	listRepostsFn   func(context.Context, []uint) ([]models.EngagementEdge, error)
	listLikersFn    func(context.Context, models.ContentRef) ([]models.EngagementEdge, error)
	listRepostersFn func(context.Context, models.ContentRef) ([]models.EngagementEdge, error)
}

func (s *engagementRepoStub) CountLikes(ctx context.Context, refs []models.ContentRef) (refCounts, error) {
	return s.countLikesFn(ctx, refs)
}
func (s *engagementRepoStub) CountReposts(ctx context.Context, refs []models.ContentRef) (refCounts, error) {
	return s.countRepostsFn(ctx, refs)
}
func (s *engagementRepoStub) CountReplies(ctx context.Context, refs []models.ContentRef) (refCounts, error) {
	return s.countRepliesFn(ctx, refs)
}
func (s *engagementRepoStub) LikedBy(ctx context.Context, userID uint, refs []models.ContentRef) (refFlags, error) {
	return s.likedByFn(ctx, userID, refs)
}
func (s *engagementRepoStub) RepostedBy(ctx context.Context, userID uint, refs []models.ContentRef) (refFlags, error) {
	return s.repostedByFn(ctx, userID, refs)
}
func (s *engagementRepoStub) ListLikes(ctx context.Context, userID uint) ([]models.EngagementEdge, error) {
	return s.listLikesFn(ctx, userID)
}
func (s *engagementRepoStub) ListReposts(ctx context.Context, userIDs []uint) ([]models.EngagementEdge, error) {
	return s.listRepostsFn(ctx, userIDs)
}
func (s *engagementRepoStub) ListLikers(ctx context.Context, ref models.ContentRef) ([]models.EngagementEdge, error) {
	return s.listLikersFn(ctx, ref)
}
func (s *engagementRepoStub) ListReposters(ctx context.Context, ref models.ContentRef) ([]models.EngagementEdge, error) {
	return s.listRepostersFn(ctx, ref)
}

func noopEngagementRepo() *engagementRepoStub {
	counts := func(_ context.Context, _ []models.ContentRef) (refCounts, error) { return refCounts{}, nil }
	flags := func(_ context.Context, _ uint, _ []models.ContentRef) (refFlags, error) { return refFlags{}, nil }
	edges := func(_ context.Context, _ models.ContentRef) ([]models.EngagementEdge, error) { return nil, nil }
	return &engagementRepoStub{
		countLikesFn:    counts,
		countRepostsFn:  counts,
		countRepliesFn:  counts,
		likedByFn:       flags,
		repostedByFn:    flags,
		listLikesFn:     func(_ context.Context, _ uint) ([]models.EngagementEdge, error) { return nil, nil },
		listRepostsFn:   func(_ context.Context, _ []uint) ([]models.EngagementEdge, error) { return nil, nil },
		listLikersFn:    edges,
		listRepostersFn: edges,
	}
}

type stubStores struct {
	users      *userRepoStub
	content    *contentRepoStub
	follows    *followRepoStub
	engagement *engagementRepoStub
}

func newStubStores() *stubStores {
	return &stubStores{
		users:      noopUserRepo(),
		content:    noopContentRepo(),
		follows:    noopFollowRepo(),
		engagement: noopEngagementRepo(),
	}
}

func (s *stubStores) stores() Stores {
	return Stores{Users: s.users, Content: s.content, Follows: s.follows, Engagement: s.engagement}
}

func (s *stubStores) engine() *Engine {
	return NewEngine(s.stores(), Options{})
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
