// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"nextblog/internal/models"
	"nextblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := s.optionalUserID(c)

	comments, svcErr := s.commentService.ListComments(c.Context(), postID, userID)
	if svcErr != nil {
		return respondAppError(c, svcErr)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, svcErr := s.commentService.AddComment(c.Context(), service.AddCommentInput{
		Actor:   s.actor(c),
		PostID:  postID,
		Content: req.Content,
	})
	if svcErr != nil {
		return respondAppError(c, svcErr)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if svcErr := s.commentService.DeleteComment(c.Context(), service.DeleteCommentInput{
		Actor:     s.actor(c),
		PostID:    postID,
		CommentID: commentID,
	}); svcErr != nil {
		return respondAppError(c, svcErr)
	}

	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}

// ToggleCommentLike handles POST /api/posts/:id/comments/:commentId/like
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	comment, svcErr := s.commentService.ToggleCommentLike(c.Context(), userID, postID, commentID)
	if svcErr != nil {
		return respondAppError(c, svcErr)
	}
	return c.JSON(comment)
}
