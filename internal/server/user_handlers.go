// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"strings"
	"time"

	"nextblog/internal/models"
	"nextblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetUserByID(c.Context(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me (multipart with optional
// `profile_image`, or plain JSON)
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Username    string `json:"username" form:"username"`
		Password    string `json:"password" form:"password"`
		FirstName   string `json:"firstname" form:"firstname"`
		LastName    string `json:"lastname" form:"lastname"`
		DateOfBirth string `json:"date_of_birth" form:"date_of_birth"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdateProfileInput{
		UserID:    userID,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if req.DateOfBirth != "" {
		parsed, perr := time.Parse("2006-01-02", req.DateOfBirth)
		if perr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Date of birth must be in YYYY-MM-DD format"))
		}
		in.DateOfBirth = &parsed
	}

	if fh, fhErr := c.FormFile("profile_image"); fhErr == nil && fh != nil {
		f, openErr := fh.Open()
		if openErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read the profile image"))
		}
		defer f.Close()
		in.ImageFile = f
	}

	user, err := s.userService.UpdateProfile(c.Context(), in)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(user)
}

// GetMyPosts handles GET /api/users/me/posts
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	posts, err := s.postService.GetUserPosts(c.Context(), userID, page.Limit, page.Offset, userID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(posts)
}

// GetMyStats handles GET /api/users/me/stats
func (s *Server) GetMyStats(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	stats, err := s.userService.GetUserStats(c.Context(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(stats)
}
