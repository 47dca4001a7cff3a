package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/server/http/dto"
	"github.com/tilvo/tasko/internal/server/http/middleware"
)

const (
	// SignatureHeader carries the processor's payload signature.
	SignatureHeader = "Stripe-Signature"
	maxPayloadBytes = 1 << 20
)

// WebhookHandler terminates processor webhooks.
type WebhookHandler struct {
	facade WebhookFacade
	logger *slog.Logger
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade WebhookFacade, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{facade: facade, logger: logger}
}

// Receive handles POST / and POST /webhooks/stripe.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	logger := h.logger.With(slog.String("request_id", middleware.RequestID(c)))

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			// Any non-2xx status is redelivered indefinitely.
			logger.Error("dropping oversized webhook payload", slog.Int64("limit_bytes", tooLarge.Limit))
			c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Message: "payload too large"})
			return
		}
		c.String(http.StatusBadRequest, "Webhook Error: unreadable body")
		return
	}

	event, err := h.facade.ParseEvent(payload, c.GetHeader(SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrMalformedEvent):
			logger.Warn("acknowledging undecodable event", slog.String("error", err.Error()))
			c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
		case errors.Is(err, domainErrors.ErrMissingSignature):
			logger.Warn("webhook without signature")
			c.String(http.StatusBadRequest, "Webhook Error: missing signature")
		default:
			logger.Warn("webhook signature verification failed", slog.String("error", err.Error()))
			c.String(http.StatusBadRequest, "Webhook Error: signature verification failed")
		}
		return
	}

	logger = logger.With(slog.String("event_id", event.EventID()), slog.String("event_type", string(event.Type())))
	if err := h.facade.HandleEvent(c.Request.Context(), event); err != nil {
		logger.Error("event processing failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.WebhookResponse{Received: true, Message: "Error processing order"})
		return
	}

	logger.Debug("event acknowledged")
	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
