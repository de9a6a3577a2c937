// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"fmt"
	"html"

	"nextblog/internal/models"
	"nextblog/internal/observability"
	"nextblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SendContactMessage handles POST /api/contact
func (s *Server) SendContactMessage(c *fiber.Ctx) error {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Name == "" || req.Email == "" || req.Subject == "" || req.Message == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("All fields are required"))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	body := fmt.Sprintf(
		`<h3>New NextBlog Message</h3>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Subject:</strong> %s</p>
<p><strong>Message:</strong><br/>%s</p>`,
		html.EscapeString(req.Name),
		html.EscapeString(req.Email),
		html.EscapeString(req.Subject),
		html.EscapeString(req.Message))

	subject := "[NextBlog Contact] " + req.Subject
	if err := s.mailer.Send(c.Context(), s.config.ContactInbox, subject, body); err != nil {
		observability.MailDeliveries.WithLabelValues("contact", "error").Inc()
		return respondAppError(c,
			models.NewDependencyError("Failed to send the message", err))
	}
	observability.MailDeliveries.WithLabelValues("contact", "success").Inc()

	return c.JSON(fiber.Map{"success": true, "message": "Message sent successfully!"})
}
