package repository

import (
	"context"
	"errors"

	"feedengine/internal/models"
	"feedengine/internal/observability"

	"gorm.io/gorm"
)

// ContentRepository reads posts and comments.
type ContentRepository interface {
	FindPost(ctx context.Context, id uint) (*models.Post, error)
	FindComment(ctx context.Context, id uint) (*models.Comment, error)
	FindContent(ctx context.Context, ref models.ContentRef) (*models.ContentItem, error)
	FindPosts(ctx context.Context, ids []uint) (map[uint]*models.Post, error)
	FindComments(ctx context.Context, ids []uint) (map[uint]*models.Comment, error)
	ListReplies(ctx context.Context, commentID uint) ([]models.Comment, error)
	ListAuthored(ctx context.Context, authorIDs []uint, kind models.Kind) ([]models.ContentItem, error)
	Search(ctx context.Context, kind models.Kind, text string) ([]models.ContentItem, error)
}

type contentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db, log: observability.NewRepoLogger("content")}
}

func (r *contentRepository) FindPost(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("find", "posts")()

	var post models.Post
	err := readDB(r.db).WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(ctx, r.log, "find_post", err)
	}
	return &post, nil
}

func (r *contentRepository) FindComment(ctx context.Context, id uint) (*models.Comment, error) {
	defer observability.TrackQuery("find", "comments")()

	var comment models.Comment
	err := readDB(r.db).WithContext(ctx).First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(ctx, r.log, "find_comment", err)
	}
	return &comment, nil
}

// FindContent resolves a reference of either kind. Unknown kinds are an
// INVALID_REFERENCE; absent items are (nil, nil).
func (r *contentRepository) FindContent(ctx context.Context, ref models.ContentRef) (*models.ContentItem, error) {
	switch ref.Kind {
	case models.KindPost:
		post, err := r.FindPost(ctx, ref.ID)
		if err != nil || post == nil {
			return nil, err
		}
		item := post.Item()
		return &item, nil
	case models.KindComment:
		comment, err := r.FindComment(ctx, ref.ID)
		if err != nil || comment == nil {
			return nil, err
		}
		item := comment.Item()
		return &item, nil
	}
	return nil, models.NewInvalidReferenceError("unknown content kind " + string(ref.Kind))
}

func (r *contentRepository) FindPosts(ctx context.Context, ids []uint) (map[uint]*models.Post, error) {
	ids = uniqueIDs(ids)
	out := make(map[uint]*models.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	defer observability.TrackQuery("find_many", "posts")()

	var posts []models.Post
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, storeError(ctx, r.log, "find_posts", err)
	}
	for i := range posts {
		out[posts[i].ID] = &posts[i]
	}
	return out, nil
}

func (r *contentRepository) FindComments(ctx context.Context, ids []uint) (map[uint]*models.Comment, error) {
	ids = uniqueIDs(ids)
	out := make(map[uint]*models.Comment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	defer observability.TrackQuery("find_many", "comments")()

	var comments []models.Comment
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&comments).Error; err != nil {
		return nil, storeError(ctx, r.log, "find_comments", err)
	}
	for i := range comments {
		out[comments[i].ID] = &comments[i]
	}
	return out, nil
}

// ListReplies returns the direct children of a comment, newest first.
func (r *contentRepository) ListReplies(ctx context.Context, commentID uint) ([]models.Comment, error) {
	defer observability.TrackQuery("list_replies", "comments")()

	var replies []models.Comment
	err := readDB(r.db).WithContext(ctx).
		Where("parent_id = ?", commentID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&replies).Error
	if err != nil {
		return nil, storeError(ctx, r.log, "list_replies", err)
	}
	return replies, nil
}

// ListAuthored returns the content written by any of authorIDs. An empty
// kind selects both posts and comments.
func (r *contentRepository) ListAuthored(ctx context.Context, authorIDs []uint, kind models.Kind) ([]models.ContentItem, error) {
	authorIDs = uniqueIDs(authorIDs)
	if len(authorIDs) == 0 {
		return nil, nil
	}

	var items []models.ContentItem
	if kind == "" || kind == models.KindPost {
		var posts []models.Post
		stop := observability.TrackQuery("list_authored", "posts")
		err := readDB(r.db).WithContext(ctx).Where("user_id IN ?", authorIDs).Find(&posts).Error
		stop()
		if err != nil {
			return nil, storeError(ctx, r.log, "list_authored_posts", err)
		}
		for i := range posts {
			items = append(items, posts[i].Item())
		}
	}
	if kind == "" || kind == models.KindComment {
		var comments []models.Comment
		stop := observability.TrackQuery("list_authored", "comments")
		err := readDB(r.db).WithContext(ctx).Where("user_id IN ?", authorIDs).Find(&comments).Error
		stop()
		if err != nil {
			return nil, storeError(ctx, r.log, "list_authored_comments", err)
		}
		for i := range comments {
			items = append(items, comments[i].Item())
		}
	}
	r.log.LogRead(ctx, "list_authored", map[string]interface{}{"authors": len(authorIDs), "items": len(items)})
	return items, nil
}

// Search matches the text case-insensitively against the content body.
func (r *contentRepository) Search(ctx context.Context, kind models.Kind, text string) ([]models.ContentItem, error) {
	pattern := containsPattern(text)
	query := readDB(r.db).WithContext(ctx).
		Where(`LOWER(content) LIKE ? ESCAPE '\'`, pattern).
		Order("id DESC")

	var items []models.ContentItem
	switch kind {
	case models.KindPost:
		defer observability.TrackQuery("search", "posts")()
		var posts []models.Post
		if err := query.Find(&posts).Error; err != nil {
			return nil, storeError(ctx, r.log, "search_posts", err)
		}
		for i := range posts {
			items = append(items, posts[i].Item())
		}
	case models.KindComment:
		defer observability.TrackQuery("search", "comments")()
		var comments []models.Comment
		if err := query.Find(&comments).Error; err != nil {
			return nil, storeError(ctx, r.log, "search_comments", err)
		}
		for i := range comments {
			items = append(items, comments[i].Item())
		}
	default:
		return nil, models.NewInvalidReferenceError("unknown content kind " + string(kind))
	}
	return items, nil
}
