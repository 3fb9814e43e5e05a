package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wedmac/lead-marketplace/internal/models"
)

// insertActivityLog вставляет одну запись журнала активности в рамках tx.
func (s *Storage) insertActivityLog(ctx context.Context, tx *sql.Tx, artistID int,
	leadID *int, activityType string, leadsBefore, leadsAfter int, details map[string]string) error {
	const op = "storage.insertActivityLog"

	if details == nil {
		details = map[string]string{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activity_logs (artist_id, lead_id, activity_type, leads_before, leads_after, details)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		artistID, leadID, activityType, leadsBefore, leadsAfter, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListActivityLogs возвращает журнал активности артиста с пагинацией.
func (s *Storage) ListActivityLogs(ctx context.Context, artistID, limit, offset int) ([]*models.ActivityLog, error) {
	const op = "storage.ListActivityLogs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, artist_id, lead_id, activity_type, leads_before, leads_after, details, created_at
		 FROM activity_logs
		 WHERE artist_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		artistID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ActivityLog
	for rows.Next() {
		var item models.ActivityLog
		var leadID sql.NullInt64
		var payload []byte
		if err := rows.Scan(&item.ID, &item.ArtistID, &leadID, &item.ActivityType,
			&item.LeadsBefore, &item.LeadsAfter, &payload, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if leadID.Valid {
			v := int(leadID.Int64)
			item.LeadID = &v
		}
		if err := json.Unmarshal(payload, &item.Details); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
