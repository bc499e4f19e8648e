package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
)

// whereBuilder accumulates positional-parameter clauses.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (b *whereBuilder) add(format string, arg interface{}) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf(format, len(b.args)))
}

func (b *whereBuilder) next() int {
	return len(b.args) + 1
}

// sql renders " AND ..." or an empty string.
func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(b.clauses, " AND ")
}

func buildLotFilterClause(filter domain.LotFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.FarmID != nil {
		b.add("l.farm_id = $%d", *filter.FarmID)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		b.add("(i.name ILIKE $%[1]d OR l.lot_code ILIKE $%[1]d)", "%"+escapeLike(q)+"%")
	}
	return b
}

func buildAlertFilterClause(filter domain.AlertFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.Type != nil {
		b.add("a.type = $%d", string(*filter.Type))
	}
	if filter.Severity != nil {
		b.add("a.severity = $%d", string(*filter.Severity))
	}
	if filter.Status != nil {
		b.add("a.status = $%d", string(*filter.Status))
	}
	if filter.FarmID != nil {
		b.add("a.farm_id = $%d", *filter.FarmID)
	}
	if filter.CreatedSince != nil {
		b.add("a.created_at >= $%d", filter.CreatedSince.In(time.UTC))
	}
	return b
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}
