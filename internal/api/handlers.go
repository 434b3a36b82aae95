package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/newsbot/internal/app"
	"github.com/deusflow/newsbot/internal/line"
	"github.com/deusflow/newsbot/internal/logger"
	"github.com/deusflow/newsbot/internal/metrics"
)

// Service is the part of app.Service the routes drive.
type Service interface {
	SendNews(ctx context.Context, category string) (app.SendOutcome, error)
	Cleanup(ctx context.Context) (int, error)
	HandleWebhook(ctx context.Context, events []line.Event) error
}

// EventParser verifies and decodes webhook bodies.
type EventParser interface {
	ParseEvents(body []byte, signature string) ([]line.Event, error)
}

// StatsSource contributes extra fields to /metrics.
type StatsSource interface {
	GetStats() map[string]interface{}
}

type Handler struct {
	service Service
	events  EventParser
	limits  StatsSource
}

// NewHandler wires the routes. events may be nil when no webhook is served;
// limits may be nil when no rate limiter is configured.
func NewHandler(service Service, events EventParser, limits StatsSource) *Handler {
	return &Handler{service: service, events: events, limits: limits}
}

// Callback handles the LINE webhook. Only a bad signature is reported as an
// error status; anything else answers 200 so LINE does not redeliver.
func (h *Handler) Callback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Error("error reading webhook body", "error", err)
		c.String(http.StatusOK, "Internal error")
		return
	}

	events, err := h.events.ParseEvents(body, c.GetHeader("X-Line-Signature"))
	if errors.Is(err, line.ErrInvalidSignature) {
		logger.Error("invalid signature from LINE")
		c.String(http.StatusBadRequest, "Invalid signature")
		return
	}
	if err != nil {
		logger.Error("error decoding webhook", "error", err)
		c.String(http.StatusOK, "Internal error")
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), events); err != nil {
		var apiErr *line.APIError
		if errors.As(err, &apiErr) {
			logger.Error("LINE API error", "status", apiErr.StatusCode, "error", err)
			c.String(http.StatusOK, "LINE API error")
			return
		}
		logger.Error("error handling webhook", "error", err)
		c.String(http.StatusOK, "Internal error")
		return
	}
	c.String(http.StatusOK, "OK")
}

// SendNews triggers delivery of one category.
func (h *Handler) SendNews(category string) gin.HandlerFunc {
	name := category + " news"
	title := strings.ToUpper(name[:1]) + name[1:]

	return func(c *gin.Context) {
		logger.Info("starting to fetch news", "category", category)
		outcome, err := h.service.SendNews(c.Request.Context(), category)
		if err != nil {
			logger.Error("error sending news", "category", category, "error", err)
			c.String(http.StatusInternalServerError, "Error: %s", err.Error())
			return
		}

		var msg string
		switch outcome {
		case app.OutcomeSent:
			msg = title + " sent successfully"
		case app.OutcomeNoNews:
			msg = "No " + name + " found"
		default:
			msg = "Failed to send " + name
		}
		c.String(outcome.HTTPStatus(), "%s", msg)
	}
}

func (h *Handler) Cleanup(c *gin.Context) {
	n, err := h.service.Cleanup(c.Request.Context())
	if err != nil {
		logger.Error("error cleaning up news", "error", err)
		c.String(http.StatusInternalServerError, "Error: %s", err.Error())
		return
	}
	c.String(http.StatusOK, "Cleaned up %d expired news records", n)
}

func (h *Handler) Health(c *gin.Context) {
	stats := metrics.Global.GetStats()

	status, code := "ok", http.StatusOK
	if !metrics.Global.Healthy() {
		status, code = "error", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (h *Handler) Metrics(c *gin.Context) {
	stats := metrics.Global.GetStats()
	if h.limits != nil {
		stats["rate_limits"] = h.limits.GetStats()
	}
	c.JSON(http.StatusOK, stats)
}
