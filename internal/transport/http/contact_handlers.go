package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portfolio-server/internal/contact"
	"github.com/vovakirdan/portfolio-server/internal/notify"
)

// ContactHandlers provides HTTP handlers for the contact form and its admin views.
type ContactHandlers struct {
	service *contact.Service
	log     *zerolog.Logger
}

// NewContactHandlers creates a new contact handlers instance.
func NewContactHandlers(svc *contact.Service, logger *zerolog.Logger) *ContactHandlers {
	return &ContactHandlers{
		service: svc,
		log:     logger,
	}
}

// ContactRequest represents the contact form body.
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ContactResponse acknowledges an accepted submission.
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the error shape used by the listing endpoint.
type MessageResponse struct {
	Message string `json:"message"`
}

// TestEmailResponse reports a successful email configuration test.
type TestEmailResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Details TestEmailDetails `json:"details"`
}

// TestEmailDetails describes the delivered test message.
type TestEmailDetails struct {
	Provider  string `json:"provider"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
}

// TestEmailError reports a failed email configuration test.
type TestEmailError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

const (
	msgMissingFields   = "Missing required fields"
	msgContactReceived = "Message received successfully! You will be contacted soon."
	msgListFailed      = "Error fetching contact submissions"
	msgEmailNotSetUp   = "Email credentials not configured. Set EMAIL_USER and EMAIL_PASS, or PORTFOLIO_EMAIL_RESEND_API_KEY."
	msgEmailCheckSetup = "Check your email credentials and Gmail App Password setup"
)

// Submit handles a contact form submission.
// POST /api/contact
func (h *ContactHandlers) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMissingFields})
			return
		}
		h.log.Debug().Err(err).Msg("invalid contact request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	sub, err := h.service.Submit(c.Request.Context(), contact.Request{
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		IPAddress: clientIP(c.Request),
	})
	if err != nil {
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMissingFields})
			return
		}
		h.log.Error().Err(err).Str("email", req.Email).Msg("failed to store contact submission")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	h.log.Debug().Str("id", sub.ID).Msg("contact submission accepted")
	c.JSON(http.StatusOK, ContactResponse{Success: true, Message: msgContactReceived})
}

// List returns every stored submission, oldest first.
// GET /api/contact-submissions
func (h *ContactHandlers) List(c *gin.Context) {
	subs, err := h.service.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list contact submissions")
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgListFailed})
		return
	}

	h.log.Debug().Int("count", len(subs)).Msg("contact submissions listed")
	c.JSON(http.StatusOK, subs)
}

// TestEmail verifies the email transport and sends a test message to the sender.
// GET /api/test-email
func (h *ContactHandlers) TestEmail(c *gin.Context) {
	receipt, err := h.service.SendTestEmail(c.Request.Context())
	if err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgEmailNotSetUp})
			return
		}
		h.log.Error().Err(err).Msg("email test failed")
		c.JSON(http.StatusInternalServerError, TestEmailError{Error: err.Error(), Details: msgEmailCheckSetup})
		return
	}

	c.JSON(http.StatusOK, TestEmailResponse{
		Success: true,
		Message: "Email test successful! Check your inbox.",
		Details: TestEmailDetails{
			Provider:  receipt.Provider,
			From:      receipt.From,
			Timestamp: receipt.SentAt.UTC().Format(time.RFC3339),
		},
	})
}
