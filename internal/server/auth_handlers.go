// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"nextblog/internal/models"
	"nextblog/internal/observability"
	"nextblog/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user account, optionally with a profile image
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Param request body object{username=string,email=string,password=string,role=string,firstname=string,lastname=string,date_of_birth=string} true "Signup request"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username    string `json:"username" form:"username"`
		Email       string `json:"email" form:"email"`
		Password    string `json:"password" form:"password"`
		Role        string `json:"role" form:"role"`
		FirstName   string `json:"firstname" form:"firstname"`
		LastName    string `json:"lastname" form:"lastname"`
		DateOfBirth string `json:"date_of_birth" form:"date_of_birth"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	for _, name := range []string{firstName, lastName} {
		if err := validation.ValidateName(name); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}

	var dateOfBirth *time.Time
	if req.DateOfBirth != "" {
		parsed, perr := time.Parse("2006-01-02", req.DateOfBirth)
		if perr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Date of birth must be in YYYY-MM-DD format"))
		}
		dateOfBirth = &parsed
	}

	// Self-service signup may pick reader or author; admin is granted out of
	// band.
	role := models.RoleReader
	if req.Role != "" {
		role = models.Role(strings.ToLower(req.Role))
		if role == models.RoleAdmin || !role.Valid() {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Role must be reader or author"))
		}
	}

	existing, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return respondAppError(c, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("email"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user := &models.User{
		Username:    req.Username,
		Email:       req.Email,
		Password:    string(hashedPassword),
		Role:        role,
		FirstName:   firstName,
		LastName:    lastName,
		DateOfBirth: dateOfBirth,
	}

	// Optional profile image (multipart only).
	if fh, fhErr := c.FormFile("profile_image"); fhErr == nil && fh != nil {
		f, openErr := fh.Open()
		if openErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read the profile image"))
		}
		defer f.Close()
		asset, upErr := s.assetService.Upload(c.Context(), f, "profiles")
		if upErr != nil {
			return respondAppError(c, upErr)
		}
		user.ProfileImage = asset
	}

	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		if !user.ProfileImage.IsZero() {
			s.assetService.DeleteAll(c.Context(), []models.ImageAsset{user.ProfileImage})
		}
		return respondAppError(c, createErr)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return respondAppError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// ForgotPassword handles POST /api/auth/forgot-password
// The response never reveals whether the address has an account.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}

	neutral := fiber.Map{"message": "If that email exists, a reset link has been sent."}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return respondAppError(c, err)
	}
	if user == nil {
		return c.JSON(neutral)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	token := hex.EncodeToString(raw)
	hash := sha256.Sum256([]byte(token))
	expires := time.Now().Add(resetTokenTTL)

	user.ResetTokenHash = hex.EncodeToString(hash[:])
	user.ResetTokenExpiresAt = &expires
	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondAppError(c, err)
	}

	resetURL := strings.TrimSuffix(s.config.ClientURL, "/") + "/reset-password/" + token
	body := fmt.Sprintf(
		`<p>Click <a href="%s">here</a> to reset your password. This link expires in 1 hour.</p>`,
		resetURL)
	if err := s.mailer.Send(c.Context(), user.Email, "Password Reset Request", body); err != nil {
		observability.MailDeliveries.WithLabelValues("password_reset", "error").Inc()
		return respondAppError(c, models.NewDependencyError("Could not send the reset email", err))
	}
	observability.MailDeliveries.WithLabelValues("password_reset", "success").Inc()

	return c.JSON(neutral)
}

// ResetPassword handles POST /api/auth/reset-password/:token
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	rawToken := c.Params("token")
	if rawToken == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Reset token is required"))
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Password is required"))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	hash := sha256.Sum256([]byte(rawToken))
	user, err := s.userRepo.GetByResetTokenHash(c.Context(), hex.EncodeToString(hash[:]))
	if err != nil {
		return respondAppError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid or expired token"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user.Password = string(hashedPassword)
	user.ResetTokenHash = ""
	user.ResetTokenExpiresAt = nil
	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password has been reset successfully."})
}
