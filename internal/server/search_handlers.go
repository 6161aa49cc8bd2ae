package server

import (
	"github.com/gofiber/fiber/v2"
)

// SearchTop handles GET /api/search?q=...
func (s *Server) SearchTop(c *fiber.Ctx) error {
	res, err := s.engine.Search.Top(c.UserContext(), c.Query("q"), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// SearchQuick handles GET /api/search/quick?q=...
func (s *Server) SearchQuick(c *fiber.Ctx) error {
	users, err := s.engine.Search.Quick(c.UserContext(), c.Query("q"), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// SearchUsers handles GET /api/search/users?q=...&limit=...
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return nil
	}
	users, err := s.engine.Search.Users(c.UserContext(), c.Query("q"), viewer(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// SearchPosts handles GET /api/search/posts?q=...&limit=...
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return nil
	}
	posts, err := s.engine.Search.Posts(c.UserContext(), c.Query("q"), viewer(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// SearchComments handles GET /api/search/comments?q=...&limit=...
func (s *Server) SearchComments(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return nil
	}
	comments, err := s.engine.Search.Comments(c.UserContext(), c.Query("q"), viewer(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}
