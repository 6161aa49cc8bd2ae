package repository

import (
	"context"
	"errors"
	"strings"

	"feedengine/internal/cache"
	"feedengine/internal/models"
	"feedengine/internal/observability"

	"gorm.io/gorm"
)

// UserRepository reads users and their follow-graph sizes.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error)
	Search(ctx context.Context, text string) ([]models.User, error)
	CountFollowers(ctx context.Context, ids []uint) (map[uint]int64, error)
	CountFollowees(ctx context.Context, ids []uint) (map[uint]int64, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

// FindByID returns nil without error when the user does not exist.
// Rows are served through the Redis cache when one is connected.
func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	defer observability.TrackQuery("find_by_id", "users")()

	var user models.User
	err := cache.CacheAside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return readDB(r.db).WithContext(ctx).First(&user, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(ctx, r.log, "find_by_id", err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery("find_by_username", "users")()

	var user models.User
	err := readDB(r.db).WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(ctx, r.log, "find_by_username", err)
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	ids = uniqueIDs(ids)
	out := make(map[uint]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	defer observability.TrackQuery("find_by_ids", "users")()

	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, storeError(ctx, r.log, "find_by_ids", err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	r.log.LogRead(ctx, "find_by_ids", map[string]interface{}{"requested": len(ids), "found": len(users)})
	return out, nil
}

// Search matches the text case-insensitively against username and display name.
func (r *userRepository) Search(ctx context.Context, text string) ([]models.User, error) {
	defer observability.TrackQuery("search", "users")()

	pattern := containsPattern(text)
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("id DESC").
		Find(&users).Error
	if err != nil {
		return nil, storeError(ctx, r.log, "search", err)
	}
	r.log.LogRead(ctx, "search", map[string]interface{}{"matches": len(users)})
	return users, nil
}

type idCount struct {
	ID    uint
	Total int64
}

func (r *userRepository) countFollows(ctx context.Context, operation, column string, ids []uint) (map[uint]int64, error) {
	ids = uniqueIDs(ids)
	out := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	defer observability.TrackQuery(operation, "follows")()

	var rows []idCount
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Select(column+" AS id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError(ctx, r.log, operation, err)
	}
	for _, row := range rows {
		out[row.ID] = row.Total
	}
	return out, nil
}

// CountFollowers counts the follow edges pointing at each user.
func (r *userRepository) CountFollowers(ctx context.Context, ids []uint) (map[uint]int64, error) {
	return r.countFollows(ctx, "count_followers", "followee_id", ids)
}

// CountFollowees counts the follow edges leaving each user.
func (r *userRepository) CountFollowees(ctx context.Context, ids []uint) (map[uint]int64, error) {
	return r.countFollows(ctx, "count_followees", "follower_id", ids)
}
