package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/logify-sh/logify/internal/auth"
	"github.com/logify-sh/logify/internal/clock"
	"github.com/logify-sh/logify/internal/ingest"
	"github.com/logify-sh/logify/internal/model"
	"github.com/logify-sh/logify/internal/ratelimit"
	"github.com/logify-sh/logify/internal/response"
)

const apiKeyHeader = "X-API-Key"

// Authenticator resolves a presented API key to its identity.
type Authenticator interface {
	Resolve(ctx context.Context, raw string) (auth.Identity, error)
}

// QuotaOracle reports the project's event count for the current month.
type QuotaOracle interface {
	MonthlyCount(ctx context.Context, projectID string) (int64, error)
}

// LogStore appends accepted events.
type LogStore interface {
	Insert(ctx context.Context, log *model.Log) error
}

// IngestHandler runs the ingestion pipeline for POST /v1/logs:
// authenticate, rate-check, quota-check, validate, persist. Every stage is
// terminal on failure; nothing is retried within a request.
type IngestHandler struct {
	Auth         Authenticator
	Limiter      ratelimit.Limiter
	Quota        QuotaOracle
	Logs         LogStore
	RateLimit    int
	MonthlyLimit int
	// StoreTimeout bounds each store round trip.
	StoreTimeout time.Duration
	Clock        clock.Clock
	Logger       zerolog.Logger
}

type ingestResponse struct {
	Success bool   `json:"success"`
	LogID   string `json:"logId"`
}

// Create handles one ingestion request.
func (h *IngestHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	apiKey := c.Request().Header.Get(apiKeyHeader)
	if apiKey == "" {
		return response.Unauthorized(c, "Missing X-API-Key header.", "Unauthorized")
	}

	identity, err := h.resolve(ctx, apiKey)
	if err != nil {
		// Malformed, unknown and revoked keys all land here; the reason
		// is never revealed.
		if errors.Is(err, auth.ErrUnauthenticated) {
			return response.Unauthorized(c, "Invalid or revoked API key.", "Unauthorized")
		}
		h.Logger.Error().Err(err).Msg("credential lookup failed")
		return response.InternalError(c, "Authentication is temporarily unavailable.", err.Error())
	}

	decision, err := h.allow(ctx, identity.LimiterKey())
	if err != nil {
		h.Logger.Error().Err(err).Msg("rate limit check failed")
		return response.InternalError(c, "Rate limiting is temporarily unavailable.", err.Error())
	}
	header := c.Response().Header()
	header.Set("X-RateLimit-Limit", strconv.Itoa(h.RateLimit))
	header.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	header.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	if !decision.Allowed {
		msg := fmt.Sprintf("Rate limit exceeded. Try again after %s.",
			decision.ResetAt.UTC().Format(time.RFC3339))
		return response.TooManyRequests(c, msg, "Too Many Requests")
	}

	used, err := h.monthlyCount(ctx, identity.ProjectID)
	if err != nil {
		h.Logger.Error().Err(err).Msg("monthly count failed")
		return response.InternalError(c, "Quota check is temporarily unavailable.", err.Error())
	}
	header.Set("X-Logify-Monthly-Limit", strconv.Itoa(h.MonthlyLimit))
	header.Set("X-Logify-Monthly-Used", strconv.FormatInt(used, 10))
	if used >= int64(h.MonthlyLimit) {
		msg := fmt.Sprintf("Monthly log limit reached (%d). Upgrade your plan for higher limits.", h.MonthlyLimit)
		return response.TooManyRequests(c, msg, "Too Many Requests")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BadRequest(c, "Could not read request body.", "Bad Request")
	}
	acceptedAt := h.Clock.Now()
	log, ferr := ingest.Validate(body, acceptedAt)
	if ferr != nil {
		return response.BadRequest(c, ferr.Reason, "Bad Request")
	}

	log.ID = uuid.New()
	log.ProjectID = identity.ProjectID
	log.IP = clientIP(c.Request())
	log.CreatedAt = acceptedAt

	if err := h.persist(ctx, log); err != nil {
		h.Logger.Error().Err(err).Str("project_id", identity.ProjectID).Msg("log insert failed")
		return response.InternalError(c, "Failed to store log.", err.Error())
	}

	return c.JSON(http.StatusCreated, ingestResponse{Success: true, LogID: log.ID.String()})
}

func (h *IngestHandler) resolve(ctx context.Context, apiKey string) (auth.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, h.StoreTimeout)
	defer cancel()
	return h.Auth.Resolve(ctx, apiKey)
}

func (h *IngestHandler) allow(ctx context.Context, identity string) (ratelimit.Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, h.StoreTimeout)
	defer cancel()
	return h.Limiter.Allow(ctx, identity)
}

func (h *IngestHandler) monthlyCount(ctx context.Context, projectID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, h.StoreTimeout)
	defer cancel()
	return h.Quota.MonthlyCount(ctx, projectID)
}

// persist writes the event detached from request cancellation: once a
// request reaches this stage the write completes or fails on its own
// timeout, so a client disconnect cannot leave ambiguous state.
func (h *IngestHandler) persist(ctx context.Context, log *model.Log) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.StoreTimeout)
	defer cancel()
	return h.Logs.Insert(ctx, log)
}
