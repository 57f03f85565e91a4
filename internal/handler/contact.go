package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/queue"
	queue_publisher "github.com/tiendita/storefront/internal/service"
)

// ContactPublisher sends a contact submission to the broker. Satisfied by
// queue_publisher.PublishContactMessage.
type ContactPublisher func(ctx context.Context, event queue.ContactMessageEvent) error

// ContactHandler accepts contact form submissions and hands them to the
// message broker for asynchronous processing.
type ContactHandler struct {
	Publish ContactPublisher
}

func NewContactHandler(publish ContactPublisher) *ContactHandler {
	if publish == nil {
		publish = queue_publisher.PublishContactMessage
	}
	return &ContactHandler{Publish: publish}
}

type contactReq struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// Submit validates the form and publishes it. The response is 202: the
// message is accepted for delivery, not yet delivered.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Message = strings.TrimSpace(req.Message)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, valid email and message (10+ chars) required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	event := queue.ContactMessageEvent{
		Name:       req.Name,
		Email:      req.Email,
		Message:    req.Message,
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Publish(ctx, event); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "message could not be accepted, try again later"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "accepted"})
}
