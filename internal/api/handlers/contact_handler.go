package handlers

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-contact/internal/api/middleware"
	"github.com/welldanyogia/webrana-contact/internal/api/response"
	"github.com/welldanyogia/webrana-contact/internal/contact"
)

// Submitter is the contact service as seen by the handler.
type Submitter interface {
	Submit(ctx context.Context, caller string, req contact.SubmissionRequest) (*contact.Receipt, error)
}

// ContactHandler handles contact form submissions
type ContactHandler struct {
	service Submitter
	logger  *slog.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(service Submitter, logger *slog.Logger) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{service: service, logger: logger}
}

// ContactResponse is the data returned for an accepted submission
type ContactResponse struct {
	Reference string `json:"reference"`
}

// Submit handles POST /api/contact. The body is decoded as JSON whatever
// Content-Type the form sent.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req contact.SubmissionRequest
	if err := c.Echo().JSONSerializer.Deserialize(c, &req); err != nil {
		h.logger.Debug("invalid contact request body", slog.Any("error", err))
		return response.BadRequest(c, contact.MsgInvalidBody)
	}

	receipt, err := h.service.Submit(c.Request().Context(), middleware.Caller(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, ContactResponse{Reference: receipt.Reference}, receipt.Message)
}
