package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRiskStatusFilter(t *testing.T) {
	tests := map[string]RiskStatusFilter{
		"":               RiskFilterAll,
		"all":            RiskFilterAll,
		"ALL_RISK":       RiskFilterAll,
		"risk":           RiskFilterRisk,
		" Low_Stock ":    RiskFilterLowStock,
		"unknown_expiry": RiskFilterUnknownExpiry,
		"EXPIRING":       RiskFilterExpiring,
	}
	for raw, want := range tests {
		got, err := ParseRiskStatusFilter(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"STALE", "R_I_S_K", "unknown-expiry", "LOWSTOCK", "all risk"} {
		_, err := ParseRiskStatusFilter(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrValidation), raw)
	}
}

func TestParseRiskLotSortIsFormatTolerant(t *testing.T) {
	for _, raw := range []string{"ON_HAND_DESC", "onhand_desc", "on-hand-desc", " OnHandDesc "} {
		got, err := ParseRiskLotSort(raw)
		require.NoError(t, err)
		assert.Equal(t, SortOnHandDesc, got)
	}

	got, err := ParseRiskLotSort("")
	require.NoError(t, err)
	assert.Equal(t, SortDefault, got)

	_, err = ParseRiskLotSort("name")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseCodePolicies(t *testing.T) {
	_, ok, err := ParseAlertSeverity("URGENT", FailClosed)
	assert.False(t, ok)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "severity", vErr.Field)

	_, ok, err = ParseAlertSeverity("URGENT", DropUnknown)
	assert.False(t, ok)
	assert.NoError(t, err)

	sev, ok, err := ParseAlertSeverity("high", DropUnknown)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, SeverityHigh, sev)
}

func TestRiskStatusFilterMatches(t *testing.T) {
	assert.True(t, RiskFilterRisk.Matches(RiskUnknownExpiry))
	assert.False(t, RiskFilterRisk.Matches(RiskHealthy))
	assert.True(t, RiskFilterAll.Matches(RiskHealthy))
	assert.True(t, RiskFilterLowStock.Matches(RiskLowStock))
	assert.False(t, RiskFilterLowStock.Matches(RiskExpired))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(AlertStatusNew, AlertStatusSent))
	assert.True(t, CanTransition(AlertStatusSent, AlertStatusNew))
	assert.True(t, CanTransition(AlertStatusSent, AlertStatusSent))
	assert.True(t, CanTransition(AlertStatusDismissed, AlertStatusNew))
	assert.False(t, CanTransition(AlertStatusResolved, AlertStatusNew))
	assert.False(t, CanTransition(AlertStatusNew, AlertStatusResolved))
	assert.False(t, CanTransition(AlertStatusDismissed, AlertStatusSent))
}

func TestParseChannelAndRecipientMode(t *testing.T) {
	ch, err := ParseChannel("")
	require.NoError(t, err)
	assert.Equal(t, ChannelInApp, ch)

	ch, err = ParseChannel("in_app")
	require.NoError(t, err)
	assert.Equal(t, ChannelInApp, ch)

	for _, raw := range []string{"SMS", "in-app", "INAPP", "I N_A-P P"} {
		_, err = ParseChannel(raw)
		assert.ErrorIs(t, err, ErrValidation, raw)
	}

	mode, err := ParseRecipientMode("  selected ")
	require.NoError(t, err)
	assert.Equal(t, RecipientsSelected, mode)

	_, err = ParseRecipientMode("")
	assert.ErrorIs(t, err, ErrValidation)

	for _, raw := range []string{"EVERYONE", "sel-ected", "all farmers in farm", "ALLFARMERSINFARM"} {
		_, err = ParseRecipientMode(raw)
		assert.ErrorIs(t, err, ErrValidation, raw)
	}
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 1, TotalPages(10, 20))
	assert.Equal(t, 3, TotalPages(41, 20))
	assert.Equal(t, 0, TotalPages(0, 20))

	start, end := PageBounds(10, 5, 20)
	assert.Equal(t, start, end)

	start, end = PageBounds(45, 2, 20)
	assert.Equal(t, 40, start)
	assert.Equal(t, 45, end)

	assert.ErrorIs(t, ValidatePage(-1, 10), ErrValidation)
	assert.ErrorIs(t, ValidatePage(0, 0), ErrValidation)
	assert.NoError(t, ValidatePage(0, 1))
}
