package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedengine/internal/config"
	"feedengine/internal/database"
	"feedengine/internal/models"
	"feedengine/internal/seed"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var day = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	t       *testing.T
	db      *gorm.DB
	factory *seed.Factory
	app     *fiber.App
}

func newTestEnv(t *testing.T, cfg *config.Config, rdb *redis.Client) *testEnv {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if cfg == nil {
		cfg = &config.Config{Port: "0"}
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{t: t, db: db, factory: seed.NewFactory(db, 11), app: srv.App()}
}

func (e *testEnv) user(name string) *models.User {
	u, err := e.factory.CreateUser(func(u *models.User) { u.Username = name })
	require.NoError(e.t, err)
	return u
}

func (e *testEnv) get(path string, viewer uint) *http.Response {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if viewer != 0 {
		req.Header.Set("X-Viewer-ID", fmt.Sprint(viewer))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	resp := env.get("/health/live", 0)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get("/health", 0)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp := env.get("/health", 0)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetTimeline(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ann := env.user("ann")
	bob := env.user("bob")
	require.NoError(t, env.factory.Follow(ann, bob, day))
	post, err := env.factory.CreatePost(bob, seed.PostAt(day))
	require.NoError(t, err)

	resp := env.get("/api/timeline", ann.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	entries := decode[[]models.FeedEntry](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, post.ID, entries[0].ID)
	assert.Equal(t, models.KindPost, entries[0].Kind)
	require.NotNil(t, entries[0].Author)
	assert.Equal(t, "bob", entries[0].Author.Username)
}

func TestErrorStatusMapping(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ann := env.user("ann")

	tests := []struct {
		name     string
		path     string
		viewer   uint
		header   string
		wantCode int
		wantErr  string
	}{
		{name: "anonymous timeline", path: "/api/timeline", wantCode: http.StatusBadRequest, wantErr: models.CodeInvalidReference},
		{name: "unknown timeline user", path: "/api/timeline", viewer: 999, wantCode: http.StatusNotFound, wantErr: models.CodeNotFound},
		{name: "malformed viewer", path: "/api/timeline", header: "abc", wantCode: http.StatusBadRequest, wantErr: models.CodeInvalidReference},
		{name: "malformed user id", path: "/api/users/abc/likes", wantCode: http.StatusBadRequest, wantErr: models.CodeInvalidReference},
		{name: "missing profile", path: "/api/users/999/likes", wantCode: http.StatusNotFound, wantErr: models.CodeNotFound},
		{name: "unknown viewer on profile", path: fmt.Sprintf("/api/users/%d/likes", ann.ID), viewer: 999, wantCode: http.StatusBadRequest, wantErr: models.CodeInvalidReference},
		{name: "bad linked kind", path: fmt.Sprintf("/api/users/%d/linked?kind=videos", ann.ID), wantCode: http.StatusBadRequest, wantErr: models.CodeInvalidReference},
		{name: "missing comment", path: "/api/comments/42/tree", wantCode: http.StatusNotFound, wantErr: models.CodeNotFound},
		{name: "bad content kind", path: "/api/content/widgets/1/likers", wantCode: http.StatusBadRequest, wantErr: models.CodeInvalidReference},
		{name: "missing content", path: "/api/content/posts/77/reposters", wantCode: http.StatusNotFound, wantErr: models.CodeNotFound},
		{name: "negative limit", path: "/api/search/users?q=ann&limit=-1", wantCode: http.StatusBadRequest, wantErr: models.CodeInvalidReference},
		{name: "non-numeric limit", path: "/api/search/posts?q=ann&limit=ten", wantCode: http.StatusBadRequest, wantErr: models.CodeInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.viewer != 0 {
				req.Header.Set("X-Viewer-ID", fmt.Sprint(tt.viewer))
			}
			if tt.header != "" {
				req.Header.Set("X-Viewer-ID", tt.header)
			}
			resp, err := env.app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			body := decode[models.ErrorResponse](t, resp)
			assert.Equal(t, tt.wantErr, body.Code)
		})
	}
}

func TestProfileAndEngagementRoutes(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ann := env.user("ann")
	bob := env.user("bob")
	post, err := env.factory.CreatePost(bob, seed.PostAt(day))
	require.NoError(t, err)
	comment, err := env.factory.CreateComment(ann, post, nil, seed.CommentAt(day.Add(time.Hour)))
	require.NoError(t, err)
	reply, err := env.factory.CreateComment(bob, post, comment, seed.CommentAt(day.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = env.factory.Like(ann, models.PostRef(post.ID), day.Add(3*time.Hour))
	require.NoError(t, err)
	_, err = env.factory.Repost(ann, models.PostRef(post.ID), day.Add(4*time.Hour))
	require.NoError(t, err)

	t.Run("likes", func(t *testing.T) {
		entries := decode[[]models.FeedEntry](t, env.get(fmt.Sprintf("/api/users/%d/likes", ann.ID), 0))
		require.Len(t, entries, 1)
		assert.Equal(t, post.ID, entries[0].ID)
		assert.Equal(t, int64(1), entries[0].Counts.Likes)
	})

	t.Run("linked comments only", func(t *testing.T) {
		entries := decode[[]models.FeedEntry](t, env.get(fmt.Sprintf("/api/users/%d/linked?kind=comments", ann.ID), 0))
		require.Len(t, entries, 1)
		assert.Equal(t, comment.ID, entries[0].ID)
	})

	t.Run("linked both kinds", func(t *testing.T) {
		entries := decode[[]models.FeedEntry](t, env.get(fmt.Sprintf("/api/users/%d/linked", ann.ID), 0))
		require.Len(t, entries, 2)
		// The repost is the most recent activity.
		assert.Equal(t, models.KindPost, entries[0].Kind)
		require.NotNil(t, entries[0].RepostedBy)
	})

	t.Run("comment tree", func(t *testing.T) {
		tree := decode[models.CommentTree](t, env.get(fmt.Sprintf("/api/comments/%d/tree", comment.ID), bob.ID))
		assert.Equal(t, comment.ID, tree.Comment.ID)
		assert.Nil(t, tree.Parent)
		require.Len(t, tree.Replies, 1)
		assert.Equal(t, reply.ID, tree.Replies[0].ID)
	})

	t.Run("likers", func(t *testing.T) {
		users := decode[[]models.EngagedUser](t, env.get(fmt.Sprintf("/api/content/posts/%d/likers", post.ID), bob.ID))
		require.Len(t, users, 1)
		assert.Equal(t, ann.ID, users[0].User.ID)
		assert.False(t, users[0].ViewerFollows)
	})

	t.Run("reposters", func(t *testing.T) {
		users := decode[[]models.EngagedUser](t, env.get(fmt.Sprintf("/api/content/post/%d/reposters", post.ID), 0))
		require.Len(t, users, 1)
		assert.Equal(t, ann.ID, users[0].User.ID)
	})
}

func TestSearchRoutes(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ann := env.user("ann")
	env.user("annika")
	_, err := env.factory.CreatePost(ann, seed.PostAt(day), func(p *models.Post) { p.Content = "annual report" })
	require.NoError(t, err)

	users := decode[[]models.UserResult](t, env.get("/api/search/users?q=ann&limit=1", 0))
	require.Len(t, users, 1)

	posts := decode[[]models.ContentResult](t, env.get("/api/search/posts?q=annual", 0))
	require.Len(t, posts, 1)
	assert.Equal(t, "annual report", posts[0].Content)

	top := decode[models.TopSearchResult](t, env.get("/api/search?q=ann", ann.ID))
	require.NotEmpty(t, top.Users)
	assert.True(t, top.Users[0].IsViewer)

	quick := decode[[]models.UserResult](t, env.get("/api/search/quick?q=ann", 0))
	assert.Len(t, quick, 2)
}

func TestSearchRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := newTestEnv(t, &config.Config{SearchRateLimit: 2}, rdb)
	viewer := env.user("ann")

	for i := 0; i < 2; i++ {
		resp := env.get("/api/search/users?q=a", viewer.ID)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := env.get("/api/search/users?q=a", viewer.ID)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Feed routes are not limited.
	resp = env.get(fmt.Sprintf("/api/users/%d/likes", viewer.ID), viewer.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	_ = env.get("/health/live", 0)

	resp := env.get("/metrics", 0)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_requests_total")
}
