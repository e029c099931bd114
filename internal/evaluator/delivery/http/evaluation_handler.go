package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"golang-stock-calls/internal/evaluator/dto"
	"golang-stock-calls/internal/evaluator/repository"
	"golang-stock-calls/internal/evaluator/service"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// EvaluationHandler handles HTTP requests for position evaluations.
type EvaluationHandler struct {
	evaluationService service.EvaluationService
	runHistoryService service.RunHistoryService
	sessionRepo       repository.SessionRepository
	logger            *logger.Logger
}

// NewEvaluationHandler creates a new EvaluationHandler. sessionRepo may be nil,
// in which case only the userId body field identifies the caller.
func NewEvaluationHandler(evaluationService service.EvaluationService, runHistoryService service.RunHistoryService, sessionRepo repository.SessionRepository, logger *logger.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		evaluationService: evaluationService,
		runHistoryService: runHistoryService,
		sessionRepo:       sessionRepo,
		logger:            logger,
	}
}

// RegisterRoutes registers the evaluation routes to the Echo group.
func (h *EvaluationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Evaluate)
	g.GET("/runs", h.GetRuns)
}

// Evaluate godoc
// @Summary Evaluate open positions
// @Description Re-evaluates the caller's open positions against daily price history and closes those that reached their target or stop-loss
// @Tags evaluations
// @Accept  json
// @Produce  json
// @Param   request  body    dto.EvaluationRequest   false    "Evaluation options"
// @Param   Authorization header string false "Bearer session token"
// @Success 200 {object} dto.EvaluationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 429 {object} dto.QuotaExceededResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /evaluations [post]
func (h *EvaluationHandler) Evaluate(c echo.Context) error {
	var req dto.EvaluationRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
		}
	}

	userID, status, msg := h.resolveUser(c, req.UserID)
	if status != 0 {
		return c.JSON(status, dto.ErrorResponse{Error: msg})
	}

	runReq := service.RunRequest{
		UserID:            userID,
		IncludeAPIDetails: req.IncludeAPIDetails,
	}
	if req.RequestDate != "" {
		referenceDate, err := utils.ParseDate(req.RequestDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid requestDate"})
		}
		runReq.ReferenceDate = &referenceDate
	}

	resp, err := h.evaluationService.Run(c.Request().Context(), runReq)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetRuns godoc
// @Summary List evaluation runs
// @Description Lists the caller's most recent evaluation runs, newest first
// @Tags evaluations
// @Produce  json
// @Param   userId query string false "User ID"
// @Param   limit  query int    false "Maximum number of runs (default 20, max 100)"
// @Param   Authorization header string false "Bearer session token"
// @Success 200 {array} dto.EvaluationRunResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /evaluations/runs [get]
func (h *EvaluationHandler) GetRuns(c echo.Context) error {
	userID, status, msg := h.resolveUser(c, c.QueryParam("userId"))
	if status != 0 {
		return c.JSON(status, dto.ErrorResponse{Error: msg})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
		}
	}

	runs, err := h.runHistoryService.GetRunsByUser(c.Request().Context(), userID, limit)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, runs)
}

// resolveUser prefers an explicit user id and falls back to the bearer session.
// A non-zero status means the request must be rejected with msg.
func (h *EvaluationHandler) resolveUser(c echo.Context, explicit string) (userID uuid.UUID, status int, msg string) {
	if explicit != "" {
		userID, err := uuid.Parse(explicit)
		if err != nil {
			return uuid.Nil, http.StatusBadRequest, "Invalid userId"
		}
		return userID, 0, ""
	}

	token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if token == "" || h.sessionRepo == nil {
		return uuid.Nil, http.StatusUnauthorized, "Unauthorized"
	}

	userID, err := h.sessionRepo.ResolveUserID(c.Request().Context(), token)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return uuid.Nil, http.StatusUnauthorized, "Unauthorized"
	}
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "Failed to resolve session", logger.ErrorField(err))
		return uuid.Nil, http.StatusInternalServerError, "Failed to resolve session"
	}
	return userID, 0, ""
}

func (h *EvaluationHandler) writeError(c echo.Context, err error) error {
	var quotaErr *service.QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		return c.JSON(http.StatusTooManyRequests, dto.QuotaExceededResponse{
			Error:           "Daily check limit reached",
			UsageCount:      quotaErr.UsedCount,
			RemainingChecks: 0,
		})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, service.ErrPersistenceNotConfigured),
		errors.Is(err, service.ErrPricingNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Service not configured"})
	case errors.Is(err, service.ErrPriceAPIKeyMissing):
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Price API key not configured"})
	}

	h.logger.ErrorContext(c.Request().Context(), "Evaluation request failed", logger.ErrorField(err))
	return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
