package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/andresuchdata/farmrisk/internal/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	service *service.InventoryHealthService
}

func NewInventoryHandler(service *service.InventoryHealthService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) parseRiskLotQuery(c *gin.Context) (domain.RiskLotQuery, error) {
	page, limit, err := pageParams(c)
	if err != nil {
		return domain.RiskLotQuery{}, err
	}

	query := domain.RiskLotQuery{
		Status: strings.TrimSpace(c.Query("status")),
		Search: strings.TrimSpace(c.Query("q")),
		Sort:   strings.TrimSpace(c.Query("sort")),
		Page:   page,
		Limit:  limit,
	}

	if query.FarmID, err = optionalInt64(c, "farm_id"); err != nil {
		return domain.RiskLotQuery{}, err
	}
	if query.WindowDays, err = optionalInt(c, "window_days"); err != nil {
		return domain.RiskLotQuery{}, err
	}
	if query.LowStockThreshold, err = optionalDecimal(c, "low_stock_threshold"); err != nil {
		return domain.RiskLotQuery{}, err
	}

	return query, nil
}

func (h *InventoryHandler) GetRiskLots(c *gin.Context) {
	query, err := h.parseRiskLotQuery(c)
	if err != nil {
		respondError(c, err, "invalid risk lot query")
		return
	}

	page, err := h.service.GetRiskLots(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, "failed to fetch risk lots")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *InventoryHandler) GetInventoryHealth(c *gin.Context) {
	var (
		query domain.InventoryHealthQuery
		err   error
	)
	if query.WindowDays, err = optionalInt(c, "window_days"); err != nil {
		respondError(c, err, "invalid window_days")
		return
	}
	if query.IncludeExpiring, err = optionalBool(c, "include_expiring"); err != nil {
		respondError(c, err, "invalid include_expiring")
		return
	}
	if query.Limit, err = optionalInt(c, "limit"); err != nil {
		respondError(c, err, "invalid limit")
		return
	}

	health, err := h.service.GetInventoryHealth(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, "failed to fetch inventory health")
		return
	}

	c.JSON(http.StatusOK, health)
}
