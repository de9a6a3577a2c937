package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"nextblog/internal/models"
	"nextblog/internal/repository"

	"gorm.io/gorm"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type AddCommentInput struct {
	Actor   models.Actor
	PostID  uint
	Content string
}

type DeleteCommentInput struct {
	Actor     models.Actor
	PostID    uint
	CommentID uint
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// AddComment attaches a comment to a post. Any authenticated user may
// comment; the body is trimmed and must land between 1 and 1000 characters.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if err := s.ensurePostExists(ctx, in.PostID); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if utf8.RuneCountInString(content) > models.CommentMaxLen {
		return nil, models.NewValidationError("Comment too long (max 1000 characters)")
	}

	comment := &models.Comment{
		Content: content,
		UserID:  in.Actor.ID,
		PostID:  in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.getComment(ctx, comment.ID, in.Actor.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uint, currentUserID uint) ([]*models.Comment, error) {
	if err := s.ensurePostExists(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID, currentUserID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// DeleteComment removes a comment. Only the comment's author or an admin may
// delete it.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.getComment(ctx, in.CommentID, in.Actor.ID)
	if err != nil {
		return err
	}
	if comment.PostID != in.PostID {
		return models.NewNotFoundError("Comment", in.CommentID)
	}

	if comment.UserID != in.Actor.ID && in.Actor.Role != models.RoleAdmin {
		return models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ToggleCommentLike adds the user's like if absent, removes it if present,
// and returns the comment with refreshed counts. The comment must belong to
// the post named in the URL.
func (s *CommentService) ToggleCommentLike(ctx context.Context, userID, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.getComment(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}

	isLiked, err := s.commentRepo.IsCommentLiked(ctx, userID, commentID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if isLiked {
		err = s.commentRepo.UnlikeComment(ctx, userID, commentID)
	} else {
		err = s.commentRepo.LikeComment(ctx, userID, commentID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.getComment(ctx, commentID, userID)
}

func (s *CommentService) ensurePostExists(ctx context.Context, postID uint) error {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (s *CommentService) getComment(ctx context.Context, id uint, currentUserID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}
