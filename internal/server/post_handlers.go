// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"nextblog/internal/cache"
	"nextblog/internal/models"
	"nextblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchPosts handles GET /api/posts/search?q=...
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	q := c.Query("q")

	page := parsePagination(c, 10)
	userID, _ := s.optionalUserID(c)

	posts, err := s.postService.SearchPosts(ctx, q, page.Limit, page.Offset, userID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(posts)
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 20)
	sort := c.Query("sort", "new")
	userID, _ := s.optionalUserID(c)

	// Anonymous default-order first pages are the hot path; serve them from
	// a short-TTL cache. Authenticated reads carry per-user liked flags and
	// skip it.
	if userID == 0 && page.Offset == 0 && page.Limit == 20 && sort == "new" {
		var posts []*models.Post
		err := cache.Aside(ctx, cache.PostsListKey, &posts, cache.PostsListTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postService.ListPosts(ctx, service.ListPostsInput{
				Limit: page.Limit, Offset: page.Offset, Sort: sort,
			})
			return fetchErr
		})
		if err != nil {
			return respondAppError(c, err)
		}
		return c.JSON(posts)
	}

	posts, err := s.postService.ListPosts(ctx, service.ListPostsInput{
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: userID,
		Sort:          sort,
	})
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id and records the view.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := s.optionalUserID(c)

	post, svcErr := s.postService.GetPost(c.Context(), id, userID)
	if svcErr != nil {
		return respondAppError(c, svcErr)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts (multipart with optional `images` files,
// or plain JSON for text-only posts)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	actor := s.actor(c)

	var req struct {
		Title   string   `json:"title" form:"title"`
		Content string   `json:"content" form:"content"`
		Tags    []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if tags, ok := formTags(c); ok {
		req.Tags = tags
	}

	files, closeFiles, err := openFormFiles(c, "images")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read the uploaded images"))
	}
	defer closeFiles()

	post, svcErr := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		Actor:   actor,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Files:   files,
	})
	if svcErr != nil {
		return respondAppError(c, svcErr)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id. The multipart form may carry new
// `images` files and a `keep_images` JSON array naming the current assets to
// retain; a malformed keep-list counts as empty rather than failing the
// request.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor := s.actor(c)

	var req struct {
		Title      string    `json:"title" form:"title"`
		Content    string    `json:"content" form:"content"`
		Tags       *[]string `json:"tags"`
		KeepImages *[]string `json:"keep_images"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdatePostInput{
		Actor:   actor,
		PostID:  id,
		Title:   req.Title,
		Content: req.Content,
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
		in.TagsProvided = true
	}
	if tags, ok := formTags(c); ok {
		in.Tags = tags
		in.TagsProvided = true
	}
	if req.KeepImages != nil {
		in.Keep = *req.KeepImages
		in.KeepProvided = true
	}
	if keep, ok := formKeepList(c); ok {
		in.Keep = keep
		in.KeepProvided = true
	}

	files, closeFiles, ffErr := openFormFiles(c, "images")
	if ffErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read the uploaded images"))
	}
	defer closeFiles()
	in.Files = files

	post, svcErr := s.postService.UpdatePost(c.Context(), in)
	if svcErr != nil {
		return respondAppError(c, svcErr)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.postService.DeletePost(c.Context(), service.DeletePostInput{
		Actor:  s.actor(c),
		PostID: id,
	}); svcErr != nil {
		return respondAppError(c, svcErr)
	}

	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	post, svcErr := s.postService.ToggleLike(c.Context(), userID, id)
	if svcErr != nil {
		return respondAppError(c, svcErr)
	}
	return c.JSON(post)
}

// formTags reads the multipart `tags` field as a JSON array. Reports whether
// the field was present.
func formTags(c *fiber.Ctx) ([]string, bool) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, false
	}
	values, ok := form.Value["tags"]
	if !ok || len(values) == 0 {
		return nil, false
	}
	var tags []string
	if err := json.Unmarshal([]byte(values[0]), &tags); err != nil {
		// Fall back to a comma-separated list.
		for _, t := range strings.Split(values[0], ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags, true
}

// formKeepList reads the multipart `keep_images` field as a JSON array of
// asset public IDs. A present-but-malformed value yields an empty keep-list.
func formKeepList(c *fiber.Ctx) ([]string, bool) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, false
	}
	values, ok := form.Value["keep_images"]
	if !ok || len(values) == 0 {
		return nil, false
	}
	var keep []string
	if err := json.Unmarshal([]byte(values[0]), &keep); err != nil {
		return nil, true
	}
	return keep, true
}

// openFormFiles opens every uploaded file under the given multipart field.
// The returned closer must be called once the readers are consumed.
func openFormFiles(c *fiber.Ctx, field string) ([]io.Reader, func(), error) {
	noop := func() {}

	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, noop, nil
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, noop, nil
	}

	var (
		readers []io.Reader
		opened  []multipart.File
	)
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for _, fh := range headers {
		f, openErr := fh.Open()
		if openErr != nil {
			closeAll()
			return nil, noop, openErr
		}
		opened = append(opened, f)
		readers = append(readers, f)
	}
	return readers, closeAll, nil
}
