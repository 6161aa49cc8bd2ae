package repository

import (
	"context"
	"time"

	"feedengine/internal/models"
	"feedengine/internal/observability"

	"gorm.io/gorm"
)

// EngagementRepository reads likes, reposts and reply counts. Count and
// flag maps only hold non-zero entries.
type EngagementRepository interface {
	CountLikes(ctx context.Context, refs []models.ContentRef) (map[models.ContentRef]int64, error)
	CountReposts(ctx context.Context, refs []models.ContentRef) (map[models.ContentRef]int64, error)
	CountReplies(ctx context.Context, refs []models.ContentRef) (map[models.ContentRef]int64, error)
	LikedBy(ctx context.Context, userID uint, refs []models.ContentRef) (map[models.ContentRef]bool, error)
	RepostedBy(ctx context.Context, userID uint, refs []models.ContentRef) (map[models.ContentRef]bool, error)
	ListLikes(ctx context.Context, userID uint) ([]models.EngagementEdge, error)
	ListReposts(ctx context.Context, userIDs []uint) ([]models.EngagementEdge, error)
	ListLikers(ctx context.Context, ref models.ContentRef) ([]models.EngagementEdge, error)
	ListReposters(ctx context.Context, ref models.ContentRef) ([]models.EngagementEdge, error)
}

type engagementRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db, log: observability.NewRepoLogger("engagement")}
}

type targetCount struct {
	TargetID uint
	Total    int64
}

type edgeRow struct {
	ID         uint
	UserID     uint
	TargetType models.Kind
	TargetID   uint
	CreatedAt  time.Time
}

func (e edgeRow) edge() models.EngagementEdge {
	return models.EngagementEdge{
		ID:        e.ID,
		UserID:    e.UserID,
		Target:    models.ContentRef{Kind: e.TargetType, ID: e.TargetID},
		CreatedAt: e.CreatedAt,
	}
}

func (r *engagementRepository) countEdges(ctx context.Context, table string, refs []models.ContentRef) (map[models.ContentRef]int64, error) {
	out := make(map[models.ContentRef]int64)
	exists, existsArgs := targetExists(table)
	postIDs, commentIDs := splitRefs(refs)
	for _, group := range []struct {
		kind models.Kind
		ids  []uint
	}{{models.KindPost, postIDs}, {models.KindComment, commentIDs}} {
		if len(group.ids) == 0 {
			continue
		}
		stop := observability.TrackQuery("count", table)
		var rows []targetCount
		err := readDB(r.db).WithContext(ctx).
			Table(table).
			Select("target_id, COUNT(*) AS total").
			Where("target_type = ? AND target_id IN ?", group.kind, group.ids).
			Where(exists, existsArgs...).
			Group("target_id").
			Scan(&rows).Error
		stop()
		if err != nil {
			return nil, storeError(ctx, r.log, "count_"+table, err)
		}
		for _, row := range rows {
			out[models.ContentRef{Kind: group.kind, ID: row.TargetID}] = row.Total
		}
	}
	return out, nil
}

func (r *engagementRepository) CountLikes(ctx context.Context, refs []models.ContentRef) (map[models.ContentRef]int64, error) {
	return r.countEdges(ctx, "likes", refs)
}

func (r *engagementRepository) CountReposts(ctx context.Context, refs []models.ContentRef) (map[models.ContentRef]int64, error) {
	return r.countEdges(ctx, "reposts", refs)
}

// CountReplies counts direct replies: top-level comments for a post and
// child comments for a comment.
func (r *engagementRepository) CountReplies(ctx context.Context, refs []models.ContentRef) (map[models.ContentRef]int64, error) {
	defer observability.TrackQuery("count_replies", "comments")()

	out := make(map[models.ContentRef]int64)
	postIDs, commentIDs := splitRefs(refs)

	if len(postIDs) > 0 {
		var rows []targetCount
		err := readDB(r.db).WithContext(ctx).
			Model(&models.Comment{}).
			Select("post_id AS target_id, COUNT(*) AS total").
			Where("post_id IN ? AND parent_id IS NULL", postIDs).
			Group("post_id").
			Scan(&rows).Error
		if err != nil {
			return nil, storeError(ctx, r.log, "count_post_replies", err)
		}
		for _, row := range rows {
			out[models.PostRef(row.TargetID)] = row.Total
		}
	}

	if len(commentIDs) > 0 {
		var rows []targetCount
		err := readDB(r.db).WithContext(ctx).
			Model(&models.Comment{}).
			Select("parent_id AS target_id, COUNT(*) AS total").
			Where("parent_id IN ?", commentIDs).
			Group("parent_id").
			Scan(&rows).Error
		if err != nil {
			return nil, storeError(ctx, r.log, "count_comment_replies", err)
		}
		for _, row := range rows {
			out[models.CommentRef(row.TargetID)] = row.Total
		}
	}
	return out, nil
}

func (r *engagementRepository) actorFlags(ctx context.Context, table string, userID uint, refs []models.ContentRef) (map[models.ContentRef]bool, error) {
	out := make(map[models.ContentRef]bool)
	if userID == 0 {
		return out, nil
	}
	exists, existsArgs := targetExists(table)
	postIDs, commentIDs := splitRefs(refs)
	for _, group := range []struct {
		kind models.Kind
		ids  []uint
	}{{models.KindPost, postIDs}, {models.KindComment, commentIDs}} {
		if len(group.ids) == 0 {
			continue
		}
		stop := observability.TrackQuery("actor_flags", table)
		var ids []uint
		err := readDB(r.db).WithContext(ctx).
			Table(table).
			Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, group.kind, group.ids).
			Where(exists, existsArgs...).
			Pluck("target_id", &ids).Error
		stop()
		if err != nil {
			return nil, storeError(ctx, r.log, "flags_"+table, err)
		}
		for _, id := range ids {
			out[models.ContentRef{Kind: group.kind, ID: id}] = true
		}
	}
	return out, nil
}

func (r *engagementRepository) LikedBy(ctx context.Context, userID uint, refs []models.ContentRef) (map[models.ContentRef]bool, error) {
	return r.actorFlags(ctx, "likes", userID, refs)
}

func (r *engagementRepository) RepostedBy(ctx context.Context, userID uint, refs []models.ContentRef) (map[models.ContentRef]bool, error) {
	return r.actorFlags(ctx, "reposts", userID, refs)
}

// listEdges loads edges of table matching where, skipping those whose
// target no longer exists, newest first.
func (r *engagementRepository) listEdges(ctx context.Context, operation, table, where string, args ...interface{}) ([]models.EngagementEdge, error) {
	defer observability.TrackQuery(operation, table)()

	exists, existsArgs := targetExists(table)
	var rows []edgeRow
	err := readDB(r.db).WithContext(ctx).
		Table(table).
		Select(table+".id, "+table+".user_id, "+table+".target_type, "+table+".target_id, "+table+".created_at").
		Where(where, args...).
		Where(exists, existsArgs...).
		Order(table + ".created_at DESC").
		Order(table + ".id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError(ctx, r.log, operation, err)
	}

	edges := make([]models.EngagementEdge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, row.edge())
	}
	r.log.LogRead(ctx, operation, map[string]interface{}{"edges": len(edges)})
	return edges, nil
}

// ListLikes returns every like userID placed on existing content.
func (r *engagementRepository) ListLikes(ctx context.Context, userID uint) ([]models.EngagementEdge, error) {
	return r.listEdges(ctx, "list_likes", "likes", "likes.user_id = ?", userID)
}

// ListReposts returns every repost by any of userIDs on existing content.
func (r *engagementRepository) ListReposts(ctx context.Context, userIDs []uint) ([]models.EngagementEdge, error) {
	userIDs = uniqueIDs(userIDs)
	if len(userIDs) == 0 {
		return nil, nil
	}
	return r.listEdges(ctx, "list_reposts", "reposts", "reposts.user_id IN ?", userIDs)
}

func (r *engagementRepository) ListLikers(ctx context.Context, ref models.ContentRef) ([]models.EngagementEdge, error) {
	return r.listEdges(ctx, "list_likers", "likes", "likes.target_type = ? AND likes.target_id = ?", ref.Kind, ref.ID)
}

func (r *engagementRepository) ListReposters(ctx context.Context, ref models.ContentRef) ([]models.EngagementEdge, error) {
	return r.listEdges(ctx, "list_reposters", "reposts", "reposts.target_type = ? AND reposts.target_id = ?", ref.Kind, ref.ID)
}
