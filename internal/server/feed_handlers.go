package server

import (
	"strings"

	"feedengine/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetTimeline handles GET /api/timeline for the viewer in X-Viewer-ID.
func (s *Server) GetTimeline(c *fiber.Ctx) error {
	entries, err := s.engine.Timeline.Home(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GetUserLikes handles GET /api/users/:id/likes
func (s *Server) GetUserLikes(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	entries, err := s.engine.Profiles.Likes(c.UserContext(), id, viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GetUserLinked handles GET /api/users/:id/linked?kind=posts|comments
func (s *Server) GetUserLinked(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var kind models.Kind
	if raw := strings.TrimSpace(c.Query("kind")); raw != "" {
		if kind, err = parseKind(c, raw); err != nil {
			return nil
		}
	}
	entries, err := s.engine.Profiles.LinkedContent(c.UserContext(), id, viewer(c), kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GetCommentTree handles GET /api/comments/:id/tree
func (s *Server) GetCommentTree(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	tree, err := s.engine.CommentTrees.GetTree(c.UserContext(), id, viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tree)
}

func (s *Server) contentRef(c *fiber.Ctx) (models.ContentRef, error) {
	kind, err := parseKind(c, c.Params("kind"))
	if err != nil {
		return models.ContentRef{}, err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return models.ContentRef{}, err
	}
	return models.ContentRef{Kind: kind, ID: id}, nil
}

// GetLikers handles GET /api/content/:kind/:id/likers
func (s *Server) GetLikers(c *fiber.Ctx) error {
	ref, err := s.contentRef(c)
	if err != nil {
		return nil
	}
	users, err := s.engine.Engagement.Likers(c.UserContext(), ref, viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetReposters handles GET /api/content/:kind/:id/reposters
func (s *Server) GetReposters(c *fiber.Ctx) error {
	ref, err := s.contentRef(c)
	if err != nil {
		return nil
	}
	users, err := s.engine.Engagement.Reposters(c.UserContext(), ref, viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
