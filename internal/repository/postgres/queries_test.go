package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertAlertQueryKeepsWorkflowColumns(t *testing.T) {
	assert.Contains(t, upsertAlertQuery, "ON CONFLICT (farm_id, type, created_day)")
	assert.Contains(t, schema, "ON alerts (farm_id, type, created_day)")

	_, set, found := strings.Cut(upsertAlertQuery, "DO UPDATE SET")
	require.True(t, found)
	set, _, found = strings.Cut(set, "RETURNING")
	require.True(t, found)

	for _, column := range []string{"status", "created_at", "created_day", "recipient_farmer_ids", "sent_at"} {
		assert.NotContains(t, set, column+" =", column)
	}
	for _, column := range []string{"severity", "title", "message", "suggested_action_url"} {
		assert.Contains(t, set, column+" = EXCLUDED."+column, column)
	}
}

func TestOnHandLotsQueries(t *testing.T) {
	where := " AND l.farm_id = $1"

	full := onHandLotsQuery(where)
	assert.Contains(t, full, "WHERE 1=1"+where)
	assert.Contains(t, full, "m.warehouse_id, m.location_id, l.expiry_date\n")
	assert.Contains(t, full, "HAVING "+onHandExpr+" > 0")

	lite := onHandLotsLiteQuery(where)
	assert.Contains(t, lite, "WHERE 1=1"+where)
	assert.Contains(t, lite, "HAVING "+onHandExpr+" > 0")
	assert.NotContains(t, lite, "warehouse_id")
	assert.NotContains(t, lite, "location_id")

	assert.Contains(t, onHandExpr, "WHEN 'OUT' THEN -m.quantity")
}
