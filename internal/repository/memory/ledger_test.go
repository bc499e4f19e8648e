package memory

import (
	"context"
	"testing"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerLiteSumsLocationsPerLot(t *testing.T) {
	farm := int64(1)
	wh1, wh2 := int64(1), int64(2)
	ledger := NewLedger(
		domain.LotSnapshot{LotID: 1, FarmID: &farm, WarehouseID: &wh1, OnHand: decimal.NewFromInt(4)},
		domain.LotSnapshot{LotID: 2, FarmID: &farm, WarehouseID: &wh1, OnHand: decimal.NewFromInt(3)},
		domain.LotSnapshot{LotID: 1, FarmID: &farm, WarehouseID: &wh2, OnHand: decimal.NewFromInt(6)},
		domain.LotSnapshot{LotID: 3, WarehouseID: &wh1, OnHand: decimal.NewFromInt(2)},
		domain.LotSnapshot{LotID: 4, FarmID: &farm, WarehouseID: &wh1, OnHand: decimal.Zero},
	)

	full, err := ledger.ListOnHandLots(context.Background(), domain.LotFilter{})
	require.NoError(t, err)
	assert.Len(t, full, 5)

	lots, err := ledger.ListOnHandLotsLite(context.Background(), &farm)
	require.NoError(t, err)
	require.Len(t, lots, 2)

	assert.Equal(t, int64(1), lots[0].LotID)
	assert.True(t, decimal.NewFromInt(10).Equal(lots[0].OnHand))
	assert.Nil(t, lots[0].WarehouseID)
	assert.Equal(t, int64(2), lots[1].LotID)
}
