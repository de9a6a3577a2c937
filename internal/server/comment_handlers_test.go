package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nextblog/internal/models"
	"nextblog/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCommentRepo implements repository.CommentRepository with overridable funcs.
type stubCommentRepo struct {
	createFn         func(context.Context, *models.Comment) error
	getByIDFn        func(context.Context, uint, uint) (*models.Comment, error)
	listByPostFn     func(context.Context, uint, uint) ([]*models.Comment, error)
	deleteFn         func(context.Context, uint) error
	isCommentLikedFn func(context.Context, uint, uint) (bool, error)
	likeCommentFn    func(context.Context, uint, uint) error
	unlikeCommentFn  func(context.Context, uint, uint) error
}

func (s *stubCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *stubCommentRepo) GetByID(ctx context.Context, id, currentUserID uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *stubCommentRepo) ListByPost(ctx context.Context, postID, currentUserID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, currentUserID)
}
func (s *stubCommentRepo) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *stubCommentRepo) IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	return s.isCommentLikedFn(ctx, userID, commentID)
}
func (s *stubCommentRepo) LikeComment(ctx context.Context, userID, commentID uint) error {
	return s.likeCommentFn(ctx, userID, commentID)
}
func (s *stubCommentRepo) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	return s.unlikeCommentFn(ctx, userID, commentID)
}

func passiveCommentRepo() *stubCommentRepo {
	return &stubCommentRepo{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 5, UserID: 2}, nil
		},
		listByPostFn:     func(_ context.Context, _, _ uint) ([]*models.Comment, error) { return nil, nil },
		deleteFn:         func(_ context.Context, _ uint) error { return nil },
		isCommentLikedFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeCommentFn:    func(_ context.Context, _, _ uint) error { return nil },
		unlikeCommentFn:  func(_ context.Context, _, _ uint) error { return nil },
	}
}

func newCommentTestApp(comments *stubCommentRepo, posts *stubPostRepo) (*fiber.App, *Server) {
	s := &Server{config: testConfig()}
	s.commentService = service.NewCommentService(comments, posts)

	app := fiber.New()
	app.Get("/api/posts/:id/comments", s.GetComments)

	protected := app.Group("", s.AuthRequired())
	protected.Post("/api/posts/:id/comments", s.CreateComment)
	protected.Post("/api/posts/:id/comments/:commentId/like", s.ToggleCommentLike)
	protected.Delete("/api/posts/:id/comments/:commentId", s.DeleteComment)
	return app, s
}

func TestGetComments(t *testing.T) {
	comments := passiveCommentRepo()
	comments.listByPostFn = func(_ context.Context, postID, _ uint) ([]*models.Comment, error) {
		assert.Equal(t, uint(5), postID)
		return []*models.Comment{{ID: 1, Content: "first"}, {ID: 2, Content: "second"}}, nil
	}
	app, _ := newCommentTestApp(comments, passivePostRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/posts/5/comments", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []models.Comment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestCreateComment(t *testing.T) {
	comments := passiveCommentRepo()
	comments.createFn = func(_ context.Context, c *models.Comment) error {
		assert.Equal(t, "nice write-up", c.Content)
		c.ID = 9
		return nil
	}
	app, s := newCommentTestApp(comments, passivePostRepo())

	payload := strings.NewReader(`{"content": "  nice write-up  "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/posts/5/comments", payload)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, s, 2, models.RoleReader))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&comment))
	assert.Equal(t, uint(9), comment.ID)
}

func TestCreateComment_EmptyBodyRejected(t *testing.T) {
	app, s := newCommentTestApp(passiveCommentRepo(), passivePostRepo())

	payload := strings.NewReader(`{"content": "   "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/posts/5/comments", payload)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, s, 2, models.RoleReader))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteComment(t *testing.T) {
	t.Run("author deletes own comment", func(t *testing.T) {
		comments := passiveCommentRepo()
		deleted := false
		comments.deleteFn = func(_ context.Context, id uint) error {
			assert.Equal(t, uint(9), id)
			deleted = true
			return nil
		}
		app, s := newCommentTestApp(comments, passivePostRepo())

		req := httptest.NewRequest(http.MethodDelete, "/api/posts/5/comments/9", nil)
		req.Header.Set("Authorization", bearerToken(t, s, 2, models.RoleReader))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, deleted)
	})

	t.Run("someone else is forbidden", func(t *testing.T) {
		app, s := newCommentTestApp(passiveCommentRepo(), passivePostRepo())

		req := httptest.NewRequest(http.MethodDelete, "/api/posts/5/comments/9", nil)
		req.Header.Set("Authorization", bearerToken(t, s, 3, models.RoleReader))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("wrong post in the path reads as missing", func(t *testing.T) {
		app, s := newCommentTestApp(passiveCommentRepo(), passivePostRepo())

		req := httptest.NewRequest(http.MethodDelete, "/api/posts/77/comments/9", nil)
		req.Header.Set("Authorization", bearerToken(t, s, 2, models.RoleReader))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestToggleCommentLike(t *testing.T) {
	comments := passiveCommentRepo()
	liked := false
	comments.likeCommentFn = func(_ context.Context, userID, commentID uint) error {
		assert.Equal(t, uint(2), userID)
		assert.Equal(t, uint(9), commentID)
		liked = true
		return nil
	}
	app, s := newCommentTestApp(comments, passivePostRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/posts/5/comments/9/like", nil)
	req.Header.Set("Authorization", bearerToken(t, s, 2, models.RoleReader))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, liked)
}

func TestToggleCommentLike_WrongPostInPath(t *testing.T) {
	comments := passiveCommentRepo()
	comments.likeCommentFn = func(_ context.Context, _, _ uint) error {
		t.Fatal("a like must not toggle through the wrong parent post")
		return nil
	}
	app, s := newCommentTestApp(comments, passivePostRepo())

	// Comment 9 belongs to post 5, not 77.
	req := httptest.NewRequest(http.MethodPost, "/api/posts/77/comments/9/like", nil)
	req.Header.Set("Authorization", bearerToken(t, s, 2, models.RoleReader))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
