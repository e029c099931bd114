package http

import (
	"net/http"

	"golang-stock-calls/internal/scheduler/dto"
	"golang-stock-calls/internal/scheduler/service"
	"golang-stock-calls/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScheduleHandler handles HTTP requests for the evaluation schedule.
type ScheduleHandler struct {
	schedulerService service.SchedulerService
	logger           *logger.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(schedulerService service.SchedulerService, logger *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedulerService: schedulerService, logger: logger}
}

// RegisterRoutes registers the schedule routes to the Echo group.
func (h *ScheduleHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetSchedule)
	g.POST("/trigger", h.TriggerSchedule)
}

// GetSchedule godoc
// @Summary Get the evaluation schedule
// @Description Get the cron expression and the next and last scheduled evaluation times
// @Tags schedules
// @Produce  json
// @Success 200 {object} dto.ScheduleResponse
// @Router /schedules [get]
func (h *ScheduleHandler) GetSchedule(c echo.Context) error {
	status := h.schedulerService.Status()
	return c.JSON(http.StatusOK, dto.ScheduleResponse{
		CronExpression: status.CronExpression,
		NextRun:        status.NextRun,
		LastRun:        status.LastRun,
	})
}

// TriggerSchedule godoc
// @Summary Publish evaluations now
// @Description Publish one scheduled evaluation request per owner of open positions without waiting for the cron time
// @Tags schedules
// @Produce  json
// @Success 202 {object} dto.TriggerResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /schedules/trigger [post]
func (h *ScheduleHandler) TriggerSchedule(c echo.Context) error {
	summary, err := h.schedulerService.PublishEvaluations(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to trigger scheduled evaluations", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to publish evaluations"})
	}
	return c.JSON(http.StatusAccepted, dto.TriggerResponse{
		Owners:    summary.Owners,
		Published: summary.Published,
		Failed:    summary.Failed,
	})
}
