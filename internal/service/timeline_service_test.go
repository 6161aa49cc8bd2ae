package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"feedengine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

func postItem(id, author uint, at time.Time) models.ContentItem {
	return models.ContentItem{Kind: models.KindPost, ID: id, UserID: author, CreatedAt: at}
}

func TestDedupLatest(t *testing.T) {
	t.Parallel()

	item := postItem(1, 10, base)
	later := base.Add(time.Hour)

	tests := []struct {
		name       string
		cands      []candidate
		wantRepost uint
		wantAt     time.Time
	}{
		{
			name:   "authored only",
			cands:  []candidate{authoredCandidate(item)},
			wantAt: base,
		},
		{
			name: "later repost replaces authored",
			cands: []candidate{
				authoredCandidate(item),
				repostCandidate(item, models.EngagementEdge{ID: 4, UserID: 11, CreatedAt: later}),
			},
			wantRepost: 4,
			wantAt:     later,
		},
		{
			name: "authored wins a tie",
			cands: []candidate{
				repostCandidate(item, models.EngagementEdge{ID: 4, UserID: 11, CreatedAt: base}),
				authoredCandidate(item),
			},
			wantAt: base,
		},
		{
			name: "newest repost wins among tied reposts",
			cands: []candidate{
				repostCandidate(item, models.EngagementEdge{ID: 9, UserID: 12, CreatedAt: later}),
				repostCandidate(item, models.EngagementEdge{ID: 4, UserID: 11, CreatedAt: later}),
			},
			wantRepost: 9,
			wantAt:     later,
		},
		{
			name: "older repost never replaces",
			cands: []candidate{
				repostCandidate(item, models.EngagementEdge{ID: 9, UserID: 12, CreatedAt: later}),
				repostCandidate(item, models.EngagementEdge{ID: 12, UserID: 11, CreatedAt: base.Add(time.Minute)}),
			},
			wantRepost: 9,
			wantAt:     later,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := dedupLatest(tt.cands)
			require.Len(t, out, 1)
			assert.Equal(t, tt.wantRepost, out[0].repostID)
			assert.True(t, tt.wantAt.Equal(out[0].activity))
		})
	}
}

func TestDedupLatest_KeepsDistinctKinds(t *testing.T) {
	t.Parallel()

	post := postItem(1, 10, base)
	comment := models.ContentItem{Kind: models.KindComment, ID: 1, UserID: 10, CreatedAt: base}

	out := dedupLatest([]candidate{authoredCandidate(post), authoredCandidate(comment)})
	assert.Len(t, out, 2)
}

func TestDayKey(t *testing.T) {
	t.Parallel()

	late := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	plusTwo := time.FixedZone("UTC+2", 2*60*60)

	assert.Equal(t, 20240501, dayKey(late, time.UTC))
	assert.Equal(t, 20240502, dayKey(late, plusTwo))
}

func TestRankTimeline(t *testing.T) {
	t.Parallel()

	yesterday := base.Add(-24 * time.Hour)
	entries := []models.FeedEntry{
		{Kind: models.KindPost, ID: 1, ActivityDate: yesterday, Counts: models.EngagementCounts{Reposts: 10}},
		{Kind: models.KindPost, ID: 2, ActivityDate: base, Counts: models.EngagementCounts{Likes: 1}},
		{Kind: models.KindPost, ID: 3, ActivityDate: base.Add(-time.Hour), Counts: models.EngagementCounts{Reposts: 1}},
		{Kind: models.KindComment, ID: 4, ActivityDate: base, Counts: models.EngagementCounts{Likes: 1}},
		{Kind: models.KindComment, ID: 2, ActivityDate: base, Counts: models.EngagementCounts{Replies: 2}},
	}

	rankTimeline(entries, time.UTC)

	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.Ref().String()
	}
	// Today sorts ahead of yesterday whatever the rating.
	assert.Equal(t, []string{
		models.PostRef(3).String(),
		models.CommentRef(4).String(),
		models.PostRef(2).String(),
		models.CommentRef(2).String(),
		models.PostRef(1).String(),
	}, got)
}

func TestRankTimeline_ActivityBreaksIDTie(t *testing.T) {
	t.Parallel()

	entries := []models.FeedEntry{
		{Kind: models.KindComment, ID: 5, ActivityDate: base.Add(-time.Hour)},
		{Kind: models.KindPost, ID: 5, ActivityDate: base.Add(-2 * time.Hour)},
		{Kind: models.KindPost, ID: 5, ActivityDate: base},
	}
	rankTimeline(entries, time.UTC)

	assert.True(t, base.Equal(entries[0].ActivityDate))
	assert.Equal(t, models.KindComment, entries[1].Kind)
	assert.Equal(t, models.KindPost, entries[2].Kind)
}

func TestTimelineService_Home_Errors(t *testing.T) {
	t.Parallel()

	t.Run("anonymous viewer", func(t *testing.T) {
		t.Parallel()
		_, err := newStubStores().engine().Timeline.Home(context.Background(), 0)
		assertAppErrorCode(t, err, models.CodeInvalidReference)
	})

	t.Run("unknown viewer", func(t *testing.T) {
		t.Parallel()
		s := newStubStores()
		s.users.findByIDFn = func(_ context.Context, _ uint) (*models.User, error) { return nil, nil }
		_, err := s.engine().Timeline.Home(context.Background(), 7)
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		t.Parallel()
		s := newStubStores()
		s.follows.listFolloweesFn = func(_ context.Context, _ uint) ([]uint, error) {
			return nil, models.NewStoreFailureError(errors.New("connection reset"))
		}
		_, err := s.engine().Timeline.Home(context.Background(), 7)
		assert.True(t, models.IsStoreFailure(err))
	})
}

func TestTimelineService_Home_DedupsAcrossSources(t *testing.T) {
	t.Parallel()

	s := newStubStores()
	post := &models.Post{ID: 1, UserID: 2, Content: "hello", CreatedAt: base.Add(-time.Hour)}

	s.follows.listFolloweesFn = func(_ context.Context, _ uint) ([]uint, error) { return []uint{2, 3}, nil }
	s.content.listAuthoredFn = func(_ context.Context, ids []uint, kind models.Kind) ([]models.ContentItem, error) {
		assert.ElementsMatch(t, []uint{1, 2, 3}, ids)
		assert.Equal(t, models.Kind(""), kind)
		return []models.ContentItem{post.Item()}, nil
	}
	s.engagement.listRepostsFn = func(_ context.Context, _ []uint) ([]models.EngagementEdge, error) {
		return []models.EngagementEdge{
			{ID: 8, UserID: 3, Target: models.PostRef(1), CreatedAt: base},
			{ID: 9, UserID: 1, Target: models.PostRef(1), CreatedAt: base.Add(-30 * time.Minute)},
		}, nil
	}
	s.content.findPostsFn = func(_ context.Context, _ []uint) (map[uint]*models.Post, error) {
		return map[uint]*models.Post{1: post}, nil
	}
	s.engagement.countRepostsFn = func(_ context.Context, _ []models.ContentRef) (refCounts, error) {
		return refCounts{models.PostRef(1): 2}, nil
	}

	entries, err := s.engine().Timeline.Home(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.True(t, base.Equal(entry.ActivityDate))
	require.NotNil(t, entry.RepostedBy)
	assert.Equal(t, "user3", entry.RepostedBy.Label)
	assert.Equal(t, int64(2), entry.Counts.Reposts)
	assert.Equal(t, "user2", entry.Author.Username)
}
