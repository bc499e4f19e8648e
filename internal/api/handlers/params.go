package handlers

import (
	"strconv"
	"strings"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultPage  = 0
	defaultLimit = 20
)

func optionalInt(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer")
	}
	return &v, nil
}

func optionalInt64(c *gin.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer")
	}
	return &v, nil
}

func optionalBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be true or false")
	}
	return &v, nil
}

func optionalDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be a number")
	}
	return &v, nil
}

// pageParams reads zero-based page and limit, defaulting to the first page of 20.
func pageParams(c *gin.Context) (int, int, error) {
	page, limit := defaultPage, defaultLimit

	p, err := optionalInt(c, "page")
	if err != nil {
		return 0, 0, err
	}
	if p != nil {
		page = *p
	}

	l, err := optionalInt(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	if l != nil {
		limit = *l
	}

	return page, limit, domain.ValidatePage(page, limit)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}
