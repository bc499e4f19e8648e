package service

import (
	"github.com/andresuchdata/farmrisk/internal/config"
	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	defaultWindowDays      = 30
	defaultLowStock        = 5
	defaultWidgetFarmLimit = 5
	topRiskLotsPerFarm     = 2
)

// RiskDefaults holds the values used when a caller omits a parameter.
type RiskDefaults struct {
	WindowDays        int
	LowStockThreshold decimal.Decimal
	WidgetFarmLimit   int
	FilterPolicy      domain.ParsePolicy
}

func DefaultRiskDefaults() RiskDefaults {
	return RiskDefaults{
		WindowDays:        defaultWindowDays,
		LowStockThreshold: decimal.NewFromInt(defaultLowStock),
		WidgetFarmLimit:   defaultWidgetFarmLimit,
		FilterPolicy:      domain.FailClosed,
	}
}

func RiskDefaultsFromConfig(cfg config.RiskConfig) RiskDefaults {
	return RiskDefaults{
		WindowDays:        cfg.DefaultWindowDays,
		LowStockThreshold: decimal.NewFromFloat(cfg.DefaultLowStockThreshold),
		WidgetFarmLimit:   cfg.WidgetFarmLimit,
		FilterPolicy:      domain.PolicyFor(cfg.StrictFilters),
	}
}

func (d RiskDefaults) windowDays(requested *int) (int, error) {
	if requested == nil {
		return d.WindowDays, nil
	}
	if *requested < 0 {
		return 0, domain.NewValidationError("window_days", "must not be negative")
	}
	return *requested, nil
}
