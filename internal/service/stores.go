// Package service implements the feed engine: engagement aggregation,
// comment trees, profile feeds, the home timeline and search ranking.
// Every operation is a read-only projection recomputed per call.
package service

import (
	"context"
	"fmt"
	"time"

	"feedengine/internal/models"
	"feedengine/internal/observability"
	"feedengine/internal/repository"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Stores bundles the content store queries the engine reads from.
type Stores struct {
	Users      repository.UserRepository
	Content    repository.ContentRepository
	Follows    repository.FollowRepository
	Engagement repository.EngagementRepository
}

// NewStores wires the gorm repositories over db.
func NewStores(db *gorm.DB) Stores {
	return Stores{
		Users:      repository.NewUserRepository(db),
		Content:    repository.NewContentRepository(db),
		Follows:    repository.NewFollowRepository(db),
		Engagement: repository.NewEngagementRepository(db),
	}
}

var validate = validator.New()

func validateInput(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return models.NewInvalidReferenceError(err.Error())
	}
	return nil
}

// checkViewer accepts the anonymous viewer (0) or an existing user.
func checkViewer(ctx context.Context, users repository.UserRepository, viewerID uint) error {
	if viewerID == 0 {
		return nil
	}
	viewer, err := users.FindByID(ctx, viewerID)
	if err != nil {
		return err
	}
	if viewer == nil {
		return models.NewInvalidReferenceError(fmt.Sprintf("viewer %d does not exist", viewerID))
	}
	return nil
}

// requireUser loads a profile user, reporting NOT_FOUND when absent.
func requireUser(ctx context.Context, users repository.UserRepository, userID uint) (*models.User, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	return user, nil
}

// op instruments one engine call with a span, metrics and a log line.
type op struct {
	name   string
	viewer uint
	start  time.Time
	span   *observability.OperationSpan
	log    *observability.ServiceLogger
}

func startOp(ctx context.Context, log *observability.ServiceLogger, name string, viewerID uint) (context.Context, *op) {
	ctx, span := observability.StartOperation(ctx, name, viewerID)
	return ctx, &op{name: name, viewer: viewerID, start: time.Now(), span: span, log: log}
}

// finish closes the call. candidates < 0 means the operation has no merge step.
func (o *op) finish(ctx context.Context, candidates, results int, err error) {
	o.span.Finish(results, err)
	if err == nil {
		observability.ObserveCompose(o.name, o.start, candidates, results)
	}
	o.log.LogCall(ctx, o.name, o.viewer, results, o.start, err)
}

// loadItems resolves references to content. Absent items are simply missing
// from the result.
func loadItems(ctx context.Context, content repository.ContentRepository, refs []models.ContentRef) (map[models.ContentRef]models.ContentItem, error) {
	var postIDs, commentIDs []uint
	for _, ref := range refs {
		switch ref.Kind {
		case models.KindPost:
			postIDs = append(postIDs, ref.ID)
		case models.KindComment:
			commentIDs = append(commentIDs, ref.ID)
		}
	}

	out := make(map[models.ContentRef]models.ContentItem, len(refs))
	if len(postIDs) > 0 {
		posts, err := content.FindPosts(ctx, postIDs)
		if err != nil {
			return nil, err
		}
		for _, p := range posts {
			out[models.PostRef(p.ID)] = p.Item()
		}
	}
	if len(commentIDs) > 0 {
		comments, err := content.FindComments(ctx, commentIDs)
		if err != nil {
			return nil, err
		}
		for _, c := range comments {
			out[models.CommentRef(c.ID)] = c.Item()
		}
	}
	return out, nil
}
