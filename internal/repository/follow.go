package repository

import (
	"context"

	"feedengine/internal/models"
	"feedengine/internal/observability"

	"gorm.io/gorm"
)

// FollowRepository reads the follow graph.
type FollowRepository interface {
	ListFollowees(ctx context.Context, userID uint) ([]uint, error)
	ListFollowers(ctx context.Context, userID uint) ([]uint, error)
	FollowedBy(ctx context.Context, followerID uint, candidateIDs []uint) (map[uint]bool, error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follows")}
}

func (r *followRepository) pluck(ctx context.Context, operation, column, where string, userID uint) ([]uint, error) {
	defer observability.TrackQuery(operation, "follows")()

	var ids []uint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where(where+" = ?", userID).
		Order(column).
		Pluck(column, &ids).Error
	if err != nil {
		return nil, storeError(ctx, r.log, operation, err)
	}
	return ids, nil
}

// ListFollowees returns the ids userID follows.
func (r *followRepository) ListFollowees(ctx context.Context, userID uint) ([]uint, error) {
	return r.pluck(ctx, "list_followees", "followee_id", "follower_id", userID)
}

// ListFollowers returns the ids following userID.
func (r *followRepository) ListFollowers(ctx context.Context, userID uint) ([]uint, error) {
	return r.pluck(ctx, "list_followers", "follower_id", "followee_id", userID)
}

// FollowedBy reports which of candidateIDs followerID follows. Only true
// entries are present.
func (r *followRepository) FollowedBy(ctx context.Context, followerID uint, candidateIDs []uint) (map[uint]bool, error) {
	candidateIDs = uniqueIDs(candidateIDs)
	out := make(map[uint]bool, len(candidateIDs))
	if followerID == 0 || len(candidateIDs) == 0 {
		return out, nil
	}
	defer observability.TrackQuery("followed_by", "follows")()

	var ids []uint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id IN ?", followerID, candidateIDs).
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, storeError(ctx, r.log, "followed_by", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
