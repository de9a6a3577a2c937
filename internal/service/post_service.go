package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"nextblog/internal/models"
	"nextblog/internal/observability"
	"nextblog/internal/repository"

	"gorm.io/gorm"
)

type PostService struct {
	postRepo repository.PostRepository
	assets   *AssetService
}

type CreatePostInput struct {
	Actor   models.Actor
	Title   string
	Content string
	Tags    []string
	Files   []io.Reader
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
	Sort          string
}

type UpdatePostInput struct {
	Actor   models.Actor
	PostID  uint
	Title   string
	Content string
	Tags    []string
	// TagsProvided distinguishes "clear the tags" from "leave them alone".
	TagsProvided bool
	Keep         []string
	KeepProvided bool
	Files        []io.Reader
}

type DeletePostInput struct {
	Actor  models.Actor
	PostID uint
}

func NewPostService(postRepo repository.PostRepository, assets *AssetService) *PostService {
	return &PostService{
		postRepo: postRepo,
		assets:   assets,
	}
}

const (
	maxTitleLen   = 300
	maxContentLen = 50000 // 50K characters
)

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if !in.Actor.Role.CanPublish() {
		return nil, models.NewForbiddenError("Only authors can create posts")
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}
	if len(in.Files) > MaxImagesPerPost {
		return nil, models.NewValidationError("A post can have at most 10 images")
	}

	uploads, err := s.uploadAll(ctx, in.Files)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:   title,
		Content: content,
		UserID:  in.Actor.ID,
		Tags:    in.Tags,
		Images:  toPostImages(uploads),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		// Creation failed after the files hit the object store; reclaim them.
		s.assets.DeleteAll(ctx, uploads)
		return nil, models.NewInternalError(err)
	}

	return s.getPost(ctx, post.ID, in.Actor.ID)
}

// GetPost returns a single post and records the view. The counter increment
// is persisted before the post is returned, so the response always reflects
// the read it just caused.
func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	post, err := s.getPost(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.IncrementViewCount(ctx, id); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.PostViews.Inc()
	post.ViewCount++

	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit, offset := clampPage(in.Limit, in.Offset)
	posts, err := s.postRepo.List(ctx, limit, offset, in.CurrentUserID, in.Sort)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	limit, offset = clampPage(limit, offset)
	posts, err := s.postRepo.Search(ctx, query, limit, offset, currentUserID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	limit, offset = clampPage(limit, offset)
	posts, err := s.postRepo.GetByUserID(ctx, userID, limit, offset, currentUserID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.getPost(ctx, in.PostID, in.Actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(post, in.Actor, "update"); err != nil {
		return nil, err
	}

	if in.Title != "" {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title cannot be blank")
		}
		if len(title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		post.Title = title
	}
	if in.Content != "" {
		content := strings.TrimSpace(in.Content)
		if content == "" {
			return nil, models.NewValidationError("Content cannot be blank")
		}
		if len(content) > maxContentLen {
			return nil, models.NewValidationError("Content too long (max 50000 characters)")
		}
		post.Content = content
	}
	if in.TagsProvided {
		post.Tags = in.Tags
	}

	reconcile := in.KeepProvided || len(in.Files) > 0
	if reconcile {
		// Validate the final set size before anything is uploaded or
		// deleted, so a doomed update leaves both stores untouched.
		current := post.Assets()
		finalCount := countKept(current, in.Keep) + len(in.Files)
		if finalCount == 0 {
			return nil, models.NewValidationError("A post must keep at least one image")
		}
		if finalCount > MaxImagesPerPost {
			return nil, models.NewValidationError("A post can have at most 10 images")
		}

		uploads, err := s.uploadAll(ctx, in.Files)
		if err != nil {
			return nil, err
		}

		final, err := s.assets.Reconcile(ctx, ReconcileInput{
			Current:         current,
			Keep:            in.Keep,
			KeepProvided:    true,
			Uploads:         uploads,
			RequireNonEmpty: true,
		})
		if err != nil {
			s.assets.DeleteAll(ctx, uploads)
			return nil, err
		}

		if err := s.postRepo.ReplaceImages(ctx, post.ID, toPostImages(final)); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.getPost(ctx, post.ID, in.Actor.ID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.getPost(ctx, in.PostID, in.Actor.ID)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(post, in.Actor, "delete"); err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return models.NewInternalError(err)
	}
	// Remote objects go after the local delete commits; failures here leave
	// orphans in the store, never dangling references in the database.
	s.assets.DeleteAll(ctx, post.Assets())
	return nil
}

// ToggleLike adds the user's like if absent, removes it if present, and
// returns the post with refreshed counts.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.getPost(ctx, postID, userID); err != nil {
		return nil, err
	}

	isLiked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if isLiked {
		err = s.postRepo.Unlike(ctx, userID, postID)
	} else {
		err = s.postRepo.Like(ctx, userID, postID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.getPost(ctx, postID, userID)
}

// authorizeMutation enforces the role gate and the ownership gate for post
// mutations. Admins may act on other authors' posts.
func (s *PostService) authorizeMutation(post *models.Post, actor models.Actor, verb string) error {
	if !actor.Role.CanPublish() {
		return models.NewForbiddenError("Only authors can " + verb + " posts")
	}
	if post.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return models.NewForbiddenError("You can only " + verb + " your own posts")
	}
	return nil
}

func (s *PostService) getPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// uploadAll stores each file and returns the resulting assets. If any upload
// fails the earlier ones are reclaimed so the store holds no strays.
func (s *PostService) uploadAll(ctx context.Context, files []io.Reader) ([]models.ImageAsset, error) {
	var uploads []models.ImageAsset
	for _, f := range files {
		asset, err := s.assets.Upload(ctx, f, "posts")
		if err != nil {
			s.assets.DeleteAll(ctx, uploads)
			return nil, err
		}
		uploads = append(uploads, asset)
	}
	return uploads, nil
}

func countKept(current []models.ImageAsset, keep []string) int {
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	n := 0
	for _, a := range current {
		if _, ok := keepSet[a.PublicID]; ok {
			n++
		}
	}
	return n
}

func toPostImages(assets []models.ImageAsset) []models.PostImage {
	images := make([]models.PostImage, len(assets))
	for i, a := range assets {
		images[i] = models.PostImage{ImageAsset: a, Position: i}
	}
	return images
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
