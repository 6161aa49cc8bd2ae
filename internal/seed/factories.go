// Package seed provides helpers to create test and demo data for the
// content store. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"feedengine/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// The same seed always produces the same data.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	seq   int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	return &Factory{db: db, faker: gofakeit.New(seed)}
}

// Faker exposes the seeded generator for callers that need extra randomness.
func (f *Factory) Faker() *gofakeit.Faker {
	return f.faker
}

// CreateUser persists a user with a unique username.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	name := strings.ToLower(f.faker.Username())
	user := &models.User{
		Username:    fmt.Sprintf("%s%d", name, f.seq),
		DisplayName: f.faker.Name(),
		Email:       fmt.Sprintf("%s%d@%s", name, f.seq, f.faker.DomainName()),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreatePost persists a post by author.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		UserID:  author.ID,
		Content: f.faker.Sentence(f.faker.Number(4, 14)),
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment persists a comment on post, replying to parent when non-nil.
func (f *Factory) CreateComment(author *models.User, post *models.Post, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:  author.ID,
		PostID:  post.ID,
		Content: f.faker.Sentence(f.faker.Number(3, 10)),
	}
	if parent != nil {
		parentID := parent.ID
		comment.ParentID = &parentID
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Follow persists a follow edge.
func (f *Factory) Follow(follower, followee *models.User, at time.Time) error {
	edge := &models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID, CreatedAt: at}
	if err := f.db.Create(edge).Error; err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	return nil
}

// Like persists a like edge.
func (f *Factory) Like(user *models.User, target models.ContentRef, at time.Time) (*models.Like, error) {
	like := &models.Like{UserID: user.ID, TargetType: target.Kind, TargetID: target.ID, CreatedAt: at}
	if err := f.db.Create(like).Error; err != nil {
		return nil, fmt.Errorf("create like: %w", err)
	}
	return like, nil
}

// Repost persists a repost edge.
func (f *Factory) Repost(user *models.User, target models.ContentRef, at time.Time) (*models.Repost, error) {
	repost := &models.Repost{UserID: user.ID, TargetType: target.Kind, TargetID: target.ID, CreatedAt: at}
	if err := f.db.Create(repost).Error; err != nil {
		return nil, fmt.Errorf("create repost: %w", err)
	}
	return repost, nil
}

// PostAt overrides the creation time of a post.
func PostAt(at time.Time) func(*models.Post) {
	return func(p *models.Post) { p.CreatedAt = at }
}

// CommentAt overrides the creation time of a comment.
func CommentAt(at time.Time) func(*models.Comment) {
	return func(c *models.Comment) { c.CreatedAt = at }
}
