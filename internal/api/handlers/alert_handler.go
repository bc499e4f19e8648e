package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/andresuchdata/farmrisk/internal/service"
	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	alerts     *service.AlertService
	dispatcher *service.NotificationDispatcher
}

func NewAlertHandler(alerts *service.AlertService, dispatcher *service.NotificationDispatcher) *AlertHandler {
	return &AlertHandler{alerts: alerts, dispatcher: dispatcher}
}

type refreshAlertsRequest struct {
	WindowDays *int `json:"window_days"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// bindOptionalJSON accepts an empty body as the zero value.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("body", "invalid JSON: %v", err)
	}
	return nil
}

func (h *AlertHandler) ListAlerts(c *gin.Context) {
	page, limit, err := pageParams(c)
	if err != nil {
		respondError(c, err, "invalid pagination")
		return
	}
	farmID, err := optionalInt64(c, "farm_id")
	if err != nil {
		respondError(c, err, "invalid farm_id")
		return
	}
	windowDays, err := optionalInt(c, "window_days")
	if err != nil {
		respondError(c, err, "invalid window_days")
		return
	}

	result, err := h.alerts.ListAlerts(c.Request.Context(), domain.AlertQuery{
		Type:       strings.TrimSpace(c.Query("type")),
		Severity:   strings.TrimSpace(c.Query("severity")),
		Status:     strings.TrimSpace(c.Query("status")),
		FarmID:     farmID,
		WindowDays: windowDays,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		respondError(c, err, "failed to fetch alerts")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AlertHandler) GetAlert(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err, "invalid alert id")
		return
	}

	alert, err := h.alerts.GetAlert(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch alert")
		return
	}

	c.JSON(http.StatusOK, alert)
}

func (h *AlertHandler) RefreshAlerts(c *gin.Context) {
	var req refreshAlertsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, err, "invalid refresh request")
		return
	}

	alerts, err := h.alerts.RefreshAlerts(c.Request.Context(), req.WindowDays)
	if err != nil {
		respondError(c, err, "failed to refresh alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": alerts, "total": len(alerts)})
}

func (h *AlertHandler) SendAlert(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err, "invalid alert id")
		return
	}

	var req domain.SendAlertRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, err, "invalid send request")
		return
	}

	alert, err := h.dispatcher.SendAlert(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "failed to send alert")
		return
	}

	c.JSON(http.StatusOK, alert)
}

func (h *AlertHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err, "invalid alert id")
		return
	}

	var req updateStatusRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, err, "invalid status request")
		return
	}

	alert, err := h.alerts.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err, "failed to update alert status")
		return
	}

	c.JSON(http.StatusOK, alert)
}
