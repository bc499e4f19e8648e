package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const alertColumns = `id, type, severity, status, farm_id, season_id, plot_id, crop_id, title, message,
    suggested_action_type, suggested_action_url, recipient_farmer_ids, created_at, created_day, sent_at`

// upsertAlertQuery refreshes content only; status, created_at and recipients keep their stored values.
const upsertAlertQuery = `
    INSERT INTO alerts (
        type, severity, status, farm_id, season_id, plot_id, crop_id, title, message,
        suggested_action_type, suggested_action_url, recipient_farmer_ids, created_at, created_day
    ) VALUES (
        :type, :severity, :status, :farm_id, :season_id, :plot_id, :crop_id, :title, :message,
        :suggested_action_type, :suggested_action_url, :recipient_farmer_ids, :created_at, :created_day
    )
    ON CONFLICT (farm_id, type, created_day)
    DO UPDATE SET
        severity = EXCLUDED.severity,
        title = EXCLUDED.title,
        message = EXCLUDED.message,
        suggested_action_type = EXCLUDED.suggested_action_type,
        suggested_action_url = EXCLUDED.suggested_action_url
    RETURNING ` + alertColumns

type alertRepository struct {
	db *DB
}

func NewAlertRepository(db *DB) *alertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) UpsertDaily(ctx context.Context, alerts []domain.Alert) ([]domain.Alert, error) {
	saved := make([]domain.Alert, 0, len(alerts))
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, upsertAlertQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, alert := range alerts {
			if alert.RecipientFarmerIDs == nil {
				alert.RecipientFarmerIDs = pq.Int64Array{}
			}
			alert.CreatedDay = day(alert.CreatedDay)
			var out domain.Alert
			if err := stmt.GetContext(ctx, &out, alert); err != nil {
				return fmt.Errorf("failed to upsert alert: %w", err)
			}
			saved = append(saved, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (r *alertRepository) GetByID(ctx context.Context, id int64) (*domain.Alert, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *alertRepository) getByID(ctx context.Context, q sqlx.QueryerContext, id int64) (*domain.Alert, error) {
	var alert domain.Alert
	err := sqlx.GetContext(ctx, q, &alert, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("alert", id)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting alert: %w", err)
	}
	return &alert, nil
}

func (r *alertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, int, error) {
	where := buildAlertFilterClause(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM alerts a WHERE 1=1` + where.sql()
	if err := r.db.GetContext(ctx, &total, countQuery, where.args...); err != nil {
		return nil, 0, fmt.Errorf("error counting alerts: %w", err)
	}

	limitIdx := where.next()
	query := `SELECT ` + alertColumns + ` FROM alerts a WHERE 1=1` + where.sql() +
		fmt.Sprintf(" ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d", limitIdx, limitIdx+1)
	args := append(where.args, filter.Limit, filter.Page*filter.Limit)

	alerts := make([]domain.Alert, 0)
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("error listing alerts: %w", err)
	}

	return alerts, total, nil
}

func (r *alertRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.AlertStatus) (*domain.Alert, error) {
	var updated *domain.Alert
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var alert domain.Alert
		err := tx.GetContext(ctx, &alert,
			`UPDATE alerts SET status = $1 WHERE id = $2 AND status = $3 RETURNING `+alertColumns,
			string(to), id, string(from))
		if errors.Is(err, sql.ErrNoRows) {
			return r.explainMiss(ctx, tx, id)
		}
		if err != nil {
			return fmt.Errorf("error updating alert status: %w", err)
		}
		updated = &alert
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *alertRepository) RecordDispatch(ctx context.Context, dispatch domain.AlertDispatch) (*domain.Alert, error) {
	from := make([]string, len(dispatch.FromStatuses))
	for i, s := range dispatch.FromStatuses {
		from[i] = string(s)
	}

	var updated *domain.Alert
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var alert domain.Alert
		err := tx.GetContext(ctx, &alert, `
            UPDATE alerts
            SET status = $1, sent_at = $2, recipient_farmer_ids = $3
            WHERE id = $4 AND status = ANY($5)
            RETURNING `+alertColumns,
			string(domain.AlertStatusSent), dispatch.SentAt, pq.Int64Array(dispatch.RecipientIDs),
			dispatch.AlertID, pq.StringArray(from))
		if errors.Is(err, sql.ErrNoRows) {
			return r.explainMiss(ctx, tx, dispatch.AlertID)
		}
		if err != nil {
			return fmt.Errorf("error marking alert sent: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
            INSERT INTO notifications (user_id, title, message, link, alert_id, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
        `)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, n := range dispatch.Notifications {
			if _, err := stmt.ExecContext(ctx, n.UserID, n.Title, n.Message, n.Link, n.AlertID, n.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert notification: %w", err)
			}
		}

		updated = &alert
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// explainMiss distinguishes a missing alert from one whose status moved underneath us.
func (r *alertRepository) explainMiss(ctx context.Context, tx *sqlx.Tx, id int64) error {
	current, err := r.getByID(ctx, tx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: alert %d is now %s", domain.ErrConflict, id, current.Status)
}

// day normalizes a calendar day for the DATE column.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
