package postgres

import (
	"testing"
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildLotFilterClause(t *testing.T) {
	farm := int64(3)

	b := buildLotFilterClause(domain.LotFilter{FarmID: &farm, Search: " 50%_urea "})

	assert.Equal(t, " AND l.farm_id = $1 AND (i.name ILIKE $2 OR l.lot_code ILIKE $2)", b.sql())
	assert.Equal(t, []interface{}{int64(3), `%50\%\_urea%`}, b.args)
	assert.Equal(t, 3, b.next())
}

func TestBuildLotFilterClauseEmpty(t *testing.T) {
	b := buildLotFilterClause(domain.LotFilter{Search: "   "})
	assert.Equal(t, "", b.sql())
	assert.Empty(t, b.args)
	assert.Equal(t, 1, b.next())
}

func TestBuildAlertFilterClause(t *testing.T) {
	typ := domain.AlertInventoryExpiring
	status := domain.AlertStatusNew
	farm := int64(9)
	since := time.Date(2026, 10, 12, 0, 0, 0, 0, time.FixedZone("WIB", 7*3600))

	b := buildAlertFilterClause(domain.AlertFilter{
		Type:         &typ,
		Status:       &status,
		FarmID:       &farm,
		CreatedSince: &since,
	})

	assert.Equal(t, " AND a.type = $1 AND a.status = $2 AND a.farm_id = $3 AND a.created_at >= $4", b.sql())
	assert.Equal(t, "INVENTORY_EXPIRING", b.args[0])
	assert.Equal(t, "NEW", b.args[1])
	assert.Equal(t, int64(9), b.args[2])
	assert.Equal(t, time.Date(2026, 10, 11, 17, 0, 0, 0, time.UTC), b.args[3])
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
}

func TestDayTruncatesToDate(t *testing.T) {
	at := time.Date(2026, 10, 19, 23, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), day(at))
}

func TestBuildSeedQuery(t *testing.T) {
	query := buildSeedQuery("farms", []string{"id", "name", "owner_user_id"})
	assert.Equal(t,
		"INSERT INTO farms (id, name, owner_user_id) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, owner_user_id = EXCLUDED.owner_user_id",
		query)
}

func TestColumnIndexes(t *testing.T) {
	indexes, err := columnIndexes([]string{"Name", " id ", "owner_user_id"}, []string{"id", "name", "owner_user_id"})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, indexes)

	_, err = columnIndexes([]string{"id"}, []string{"id", "name"})
	assert.Error(t, err)
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty("  "))
	assert.Equal(t, "2026-11-01", nullIfEmpty("2026-11-01"))
}
