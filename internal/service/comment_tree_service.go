package service

import (
	"context"

	"feedengine/internal/models"
	"feedengine/internal/observability"
)

// CommentTreeService assembles a comment with one level of context in each
// direction.
type CommentTreeService struct {
	stores     Stores
	engagement *EngagementService
	log        *observability.ServiceLogger
}

func NewCommentTreeService(stores Stores, engagement *EngagementService) *CommentTreeService {
	return &CommentTreeService{stores: stores, engagement: engagement, log: observability.NewServiceLogger("comment_tree")}
}

// GetTree returns the comment, its parent (not the parent's parent) and its
// direct replies newest first. Reply counts are direct children only.
func (s *CommentTreeService) GetTree(ctx context.Context, commentID, viewerID uint) (tree *models.CommentTree, err error) {
	ctx, o := startOp(ctx, s.log, "comment_tree", viewerID)
	defer func() {
		n := 0
		if tree != nil {
			n = 1 + len(tree.Replies)
		}
		o.finish(ctx, -1, n, err)
	}()

	if err := checkViewer(ctx, s.stores.Users, viewerID); err != nil {
		return nil, err
	}
	comment, err := s.stores.Content.FindComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, models.NewNotFoundError("Comment", commentID)
	}

	replies, err := s.stores.Content.ListReplies(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	var parent *models.Comment
	if comment.ParentID != nil {
		if parent, err = s.stores.Content.FindComment(ctx, *comment.ParentID); err != nil {
			return nil, err
		}
	}

	refs := []models.ContentRef{models.CommentRef(comment.ID)}
	userIDs := []uint{comment.UserID}
	if parent != nil {
		refs = append(refs, models.CommentRef(parent.ID))
		userIDs = append(userIDs, parent.UserID)
	}
	for i := range replies {
		refs = append(refs, models.CommentRef(replies[i].ID))
		userIDs = append(userIDs, replies[i].UserID)
	}

	replyCounts, err := s.stores.Engagement.CountReplies(ctx, refs)
	if err != nil {
		return nil, err
	}
	users, err := s.stores.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	rootRef := models.CommentRef(comment.ID)
	eng, err := s.engagement.aggregate(ctx, refs[:1], map[models.ContentRef]uint{rootRef: comment.UserID}, viewerID)
	if err != nil {
		return nil, err
	}

	node := func(c *models.Comment) models.CommentNode {
		return models.CommentNode{
			ID:        c.ID,
			PostID:    c.PostID,
			ParentID:  c.ParentID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			Author:    users[c.UserID].Summary(),
			Replies:   replyCounts[models.CommentRef(c.ID)],
		}
	}

	tree = &models.CommentTree{
		Comment:    node(comment),
		Engagement: eng[rootRef],
		Replies:    make([]models.CommentNode, 0, len(replies)),
	}
	if parent != nil {
		p := node(parent)
		tree.Parent = &p
	}
	for i := range replies {
		tree.Replies = append(tree.Replies, node(&replies[i]))
	}
	return tree, nil
}
