package service

import (
	"context"
	"strings"
	"testing"

	"nextblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentRepoStub struct {
	createFn         func(context.Context, *models.Comment) error
	getByIDFn        func(context.Context, uint, uint) (*models.Comment, error)
	listByPostFn     func(context.Context, uint, uint) ([]*models.Comment, error)
	deleteFn         func(context.Context, uint) error
	isCommentLikedFn func(context.Context, uint, uint) (bool, error)
	likeCommentFn    func(context.Context, uint, uint) error
	unlikeCommentFn  func(context.Context, uint, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID, currentUserID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, currentUserID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	return s.isCommentLikedFn(ctx, userID, commentID)
}
func (s *commentRepoStub) LikeComment(ctx context.Context, userID, commentID uint) error {
	return s.likeCommentFn(ctx, userID, commentID)
}
func (s *commentRepoStub) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	return s.unlikeCommentFn(ctx, userID, commentID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: id}, nil
		},
		listByPostFn:     func(_ context.Context, _, _ uint) ([]*models.Comment, error) { return nil, nil },
		deleteFn:         func(_ context.Context, _ uint) error { return nil },
		isCommentLikedFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeCommentFn:    func(_ context.Context, _, _ uint) error { return nil },
		unlikeCommentFn:  func(_ context.Context, _, _ uint) error { return nil },
	}
}

func newTestCommentService(comments *commentRepoStub, posts *postRepoStub) *CommentService {
	return NewCommentService(comments, posts)
}

func TestCommentService_AddComment_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestCommentService(noopCommentRepo(), noopPostRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty content", content: ""},
		{name: "whitespace only", content: "  \t\n "},
		{name: "over the length cap", content: strings.Repeat("x", 1001)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.AddComment(ctx, AddCommentInput{
				Actor:   reader(1),
				PostID:  5,
				Content: tc.content,
			})
			assertValidationError(t, err)
		})
	}
}

func TestCommentService_AddComment_TrimsAndStores(t *testing.T) {
	t.Parallel()

	comments := noopCommentRepo()
	comments.createFn = func(_ context.Context, c *models.Comment) error {
		assert.Equal(t, "hello there", c.Content)
		assert.Equal(t, uint(5), c.PostID)
		assert.Equal(t, uint(2), c.UserID)
		c.ID = 9
		return nil
	}
	comments.getByIDFn = func(_ context.Context, id, _ uint) (*models.Comment, error) {
		return &models.Comment{ID: id, Content: "hello there"}, nil
	}
	svc := newTestCommentService(comments, noopPostRepo())

	comment, err := svc.AddComment(context.Background(), AddCommentInput{
		Actor:   reader(2),
		PostID:  5,
		Content: "  hello there  ",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(9), comment.ID)
}

func TestCommentService_AddComment_ExactLengthCapAccepted(t *testing.T) {
	t.Parallel()

	svc := newTestCommentService(noopCommentRepo(), noopPostRepo())
	_, err := svc.AddComment(context.Background(), AddCommentInput{
		Actor:   reader(1),
		PostID:  5,
		Content: strings.Repeat("x", 1000),
	})
	assert.NoError(t, err)
}

func TestCommentService_AddComment_LengthCapCountsCharacters(t *testing.T) {
	t.Parallel()

	svc := newTestCommentService(noopCommentRepo(), noopPostRepo())
	ctx := context.Background()

	// 400 characters but 1200 bytes; must be accepted.
	_, err := svc.AddComment(ctx, AddCommentInput{
		Actor:   reader(1),
		PostID:  5,
		Content: strings.Repeat("漢", 400),
	})
	assert.NoError(t, err)

	_, err = svc.AddComment(ctx, AddCommentInput{
		Actor:   reader(1),
		PostID:  5,
		Content: strings.Repeat("漢", 1001),
	})
	assertValidationError(t, err)
}

func TestCommentService_AddComment_MissingPost(t *testing.T) {
	t.Parallel()

	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
		return nil, errRecordNotFound()
	}
	svc := newTestCommentService(noopCommentRepo(), posts)

	_, err := svc.AddComment(context.Background(), AddCommentInput{
		Actor:   reader(1),
		PostID:  404,
		Content: "hello",
	})
	assertNotFoundError(t, err)
}

func TestCommentService_DeleteComment_Authorization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		actor   models.Actor
		allowed bool
	}{
		{name: "comment author may delete", actor: reader(3), allowed: true},
		{name: "admin may delete anyone's comment", actor: admin(9), allowed: true},
		{name: "another reader may not", actor: reader(4)},
		{name: "the post's author may not either", actor: author(1)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			comments := noopCommentRepo()
			comments.getByIDFn = func(_ context.Context, id, _ uint) (*models.Comment, error) {
				return &models.Comment{ID: id, PostID: 5, UserID: 3}, nil
			}
			deleted := false
			comments.deleteFn = func(_ context.Context, _ uint) error {
				deleted = true
				return nil
			}
			svc := newTestCommentService(comments, noopPostRepo())

			err := svc.DeleteComment(context.Background(), DeleteCommentInput{
				Actor:     tc.actor,
				PostID:    5,
				CommentID: 9,
			})
			if tc.allowed {
				assert.NoError(t, err)
				assert.True(t, deleted)
			} else {
				assertForbiddenError(t, err)
				assert.False(t, deleted)
			}
		})
	}
}

func TestCommentService_DeleteComment_PostMismatch(t *testing.T) {
	t.Parallel()

	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id, _ uint) (*models.Comment, error) {
		return &models.Comment{ID: id, PostID: 7, UserID: 3}, nil
	}
	svc := newTestCommentService(comments, noopPostRepo())

	// The comment exists but hangs off a different post than the URL claims.
	err := svc.DeleteComment(context.Background(), DeleteCommentInput{
		Actor:     reader(3),
		PostID:    5,
		CommentID: 9,
	})
	assertNotFoundError(t, err)
}

func TestCommentService_ToggleCommentLike(t *testing.T) {
	t.Parallel()

	t.Run("likes when absent", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 5}, nil
		}
		liked := false
		comments.likeCommentFn = func(_ context.Context, userID, commentID uint) error {
			assert.Equal(t, uint(2), userID)
			assert.Equal(t, uint(9), commentID)
			liked = true
			return nil
		}
		svc := newTestCommentService(comments, noopPostRepo())

		_, err := svc.ToggleCommentLike(context.Background(), 2, 5, 9)
		require.NoError(t, err)
		assert.True(t, liked)
	})

	t.Run("unlikes when present", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 5}, nil
		}
		comments.isCommentLikedFn = func(_ context.Context, _, _ uint) (bool, error) { return true, nil }
		unliked := false
		comments.unlikeCommentFn = func(_ context.Context, _, _ uint) error {
			unliked = true
			return nil
		}
		svc := newTestCommentService(comments, noopPostRepo())

		_, err := svc.ToggleCommentLike(context.Background(), 2, 5, 9)
		require.NoError(t, err)
		assert.True(t, unliked)
	})
}

func TestCommentService_ToggleCommentLike_PostMismatch(t *testing.T) {
	t.Parallel()

	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id, _ uint) (*models.Comment, error) {
		return &models.Comment{ID: id, PostID: 7}, nil
	}
	comments.likeCommentFn = func(_ context.Context, _, _ uint) error {
		t.Fatal("a like must not toggle through the wrong parent post")
		return nil
	}
	svc := newTestCommentService(comments, noopPostRepo())

	_, err := svc.ToggleCommentLike(context.Background(), 2, 5, 9)
	assertNotFoundError(t, err)
}

func TestCommentService_ListComments_MissingPost(t *testing.T) {
	t.Parallel()

	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
		return nil, errRecordNotFound()
	}
	svc := newTestCommentService(noopCommentRepo(), posts)

	_, err := svc.ListComments(context.Background(), 404, 0)
	assertNotFoundError(t, err)
}
