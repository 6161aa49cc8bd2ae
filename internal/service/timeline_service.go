package service

import (
	"context"
	"sort"
	"time"

	"feedengine/internal/models"
	"feedengine/internal/observability"
)

// TimelineService builds the follow-based home timeline.
type TimelineService struct {
	stores   Stores
	hydrator hydrator
	loc      *time.Location
	log      *observability.ServiceLogger
}

// NewTimelineService buckets activity by calendar day in loc (UTC when nil).
func NewTimelineService(stores Stores, engagement *EngagementService, loc *time.Location) *TimelineService {
	if loc == nil {
		loc = time.UTC
	}
	return &TimelineService{
		stores:   stores,
		hydrator: hydrator{stores: stores, engagement: engagement},
		loc:      loc,
		log:      observability.NewServiceLogger("timeline"),
	}
}

// Home merges the viewer's own content, their followees' content and the
// reposts of both, keeps the most recent row per item and ranks the result
// by day, then rating.
func (s *TimelineService) Home(ctx context.Context, viewerID uint) (entries []models.FeedEntry, err error) {
	ctx, o := startOp(ctx, s.log, "home_timeline", viewerID)
	var cands []candidate
	defer func() { o.finish(ctx, len(cands), len(entries), err) }()

	if viewerID == 0 {
		return nil, models.NewInvalidReferenceError("home timeline requires a viewer")
	}
	viewer, err := requireUser(ctx, s.stores.Users, viewerID)
	if err != nil {
		return nil, err
	}

	followees, err := s.stores.Follows.ListFollowees(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	circle := append([]uint{viewer.ID}, followees...)

	authored, err := s.stores.Content.ListAuthored(ctx, circle, "")
	if err != nil {
		return nil, err
	}
	for _, item := range authored {
		cands = append(cands, authoredCandidate(item))
	}

	reposts, err := s.stores.Engagement.ListReposts(ctx, circle)
	if err != nil {
		return nil, err
	}
	if len(reposts) > 0 {
		targets, err := loadItems(ctx, s.stores.Content, edgeTargets(reposts))
		if err != nil {
			return nil, err
		}
		cands = append(cands, repostCandidates(reposts, targets, "")...)
	}

	entries, err = s.hydrator.build(ctx, dedupLatest(cands), viewer.ID, viewer.ID)
	if err != nil {
		return nil, err
	}
	rankTimeline(entries, s.loc)
	return entries, nil
}

// dedupLatest keeps one candidate per item: the most recent activity, the
// authored row on a tie, and the newest repost among tied reposts.
func dedupLatest(cands []candidate) []candidate {
	best := make(map[models.ContentRef]int, len(cands))
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		ref := c.ref()
		i, seen := best[ref]
		if !seen {
			best[ref] = len(out)
			out = append(out, c)
			continue
		}
		if supersedes(c, out[i]) {
			out[i] = c
		}
	}
	return out
}

func supersedes(c, cur candidate) bool {
	if !c.activity.Equal(cur.activity) {
		return c.activity.After(cur.activity)
	}
	if c.repostID == 0 || cur.repostID == 0 {
		return c.repostID == 0 && cur.repostID != 0
	}
	return c.repostID > cur.repostID
}

// dayKey identifies the calendar day of t in loc.
func dayKey(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return y*10000 + int(m)*100 + d
}

// rankTimeline orders by day desc, rating desc, content id desc, activity
// desc, and posts before comments.
func rankTimeline(entries []models.FeedEntry, loc *time.Location) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if da, db := dayKey(a.ActivityDate, loc), dayKey(b.ActivityDate, loc); da != db {
			return da > db
		}
		if ra, rb := a.Counts.Rating(), b.Counts.Rating(); ra != rb {
			return ra > rb
		}
		if a.ID != b.ID {
			return a.ID > b.ID
		}
		if !a.ActivityDate.Equal(b.ActivityDate) {
			return a.ActivityDate.After(b.ActivityDate)
		}
		return a.Kind == models.KindPost && b.Kind != models.KindPost
	})
}
