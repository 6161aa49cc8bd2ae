package service

import "time"

// Options tunes the engine.
type Options struct {
	// Location defines calendar days for the home timeline. Defaults to UTC.
	Location   *time.Location
	QuickLimit int
	TopLimit   int
}

// Engine groups the read-only feed operations over one set of stores.
type Engine struct {
	Engagement   *EngagementService
	CommentTrees *CommentTreeService
	Profiles     *ProfileFeedService
	Timeline     *TimelineService
	Search       *SearchService
}

func NewEngine(stores Stores, opts Options) *Engine {
	engagement := NewEngagementService(stores)
	return &Engine{
		Engagement:   engagement,
		CommentTrees: NewCommentTreeService(stores, engagement),
		Profiles:     NewProfileFeedService(stores, engagement),
		Timeline:     NewTimelineService(stores, engagement, opts.Location),
		Search:       NewSearchService(stores, engagement, opts.QuickLimit, opts.TopLimit),
	}
}
