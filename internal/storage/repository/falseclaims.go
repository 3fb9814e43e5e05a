package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wedmac/lead-marketplace/internal/models"
)

// CreateFalseClaim регистрирует жалобу артиста на ложный лид.
// Жалоба принимается только на лид, который артист действительно брал.
func (s *Storage) CreateFalseClaim(ctx context.Context, leadID, artistID int, reason string) (*models.FalseClaim, error) {
	const op = "storage.CreateFalseClaim"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var claimed bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM lead_claims WHERE lead_id = $1 AND artist_id = $2)`,
		leadID, artistID).Scan(&claimed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !claimed {
		return nil, fmt.Errorf("%s: %w", op, ErrNotClaimed)
	}

	item := &models.FalseClaim{
		LeadID:   leadID,
		ArtistID: artistID,
		Reason:   reason,
		Status:   models.FalseClaimPending,
	}
	err = s.DB.QueryRowContext(ctx,
		`INSERT INTO false_claims (lead_id, artist_id, reason, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		leadID, artistID, reason, models.FalseClaimPending).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// ListFalseClaims возвращает жалобы с опциональным фильтром по статусу.
// Пустой status означает все жалобы.
func (s *Storage) ListFalseClaims(ctx context.Context, status string, limit, offset int) ([]*models.FalseClaim, error) {
	const op = "storage.ListFalseClaims"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, lead_id, artist_id, reason, status,
	          admin_note, resolved_by, created_at, resolved_at
	      FROM false_claims`
	args := []any{limit, offset}
	if status != "" {
		query += ` WHERE status = $3`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.FalseClaim
	for rows.Next() {
		var item models.FalseClaim
		var resolvedAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.LeadID, &item.ArtistID, &item.Reason,
			&item.Status, &item.AdminNote, &item.ResolvedBy, &item.CreatedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if resolvedAt.Valid {
			v := resolvedAt.Time
			item.ResolvedAt = &v
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ResolveFalseClaim переводит жалобу из pending в approved или rejected.
// Жалоба блокируется FOR UPDATE, повторное разрешение возвращает
// ErrAlreadyResolved. При одобрении артисту возвращается один кредит
// через журнал с референсом FALSECLAIM_<id>, поэтому двойной возврат
// по одной жалобе невозможен.
func (s *Storage) ResolveFalseClaim(ctx context.Context, claimID int,
	status, adminNote, resolvedBy string) (*models.FalseClaim, error) {
	const op = "storage.ResolveFalseClaim"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var item models.FalseClaim
	err = tx.QueryRowContext(ctx,
		`SELECT id, lead_id, artist_id, reason, status, created_at
		 FROM false_claims
		 WHERE id = $1
		 FOR UPDATE`,
		claimID).Scan(&item.ID, &item.LeadID, &item.ArtistID, &item.Reason, &item.Status, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrFalseClaimNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if item.Status != models.FalseClaimPending {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyResolved)
	}

	if status == models.FalseClaimApproved {
		entry, err := s.applyCredit(ctx, tx, item.ArtistID, 1,
			models.TxRefund, "Refund for false lead claim",
			fmt.Sprintf("FALSECLAIM_%d", item.ID), nil)
		if err != nil {
			return nil, err
		}
		if err := s.insertActivityLog(ctx, tx, item.ArtistID, &item.LeadID, models.ActivityRefund,
			entry.CreditsBefore, entry.CreditsAfter,
			map[string]string{"false_claim_id": fmt.Sprintf("%d", item.ID)}); err != nil {
			return nil, err
		}
	}

	var resolvedAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`UPDATE false_claims
		 SET status = $1, admin_note = $2, resolved_by = $3, resolved_at = NOW()
		 WHERE id = $4
		 RETURNING resolved_at`,
		status, adminNote, resolvedBy, claimID).Scan(&resolvedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	item.Status = status
	item.AdminNote = adminNote
	item.ResolvedBy = resolvedBy
	if resolvedAt.Valid {
		v := resolvedAt.Time
		item.ResolvedAt = &v
	}
	return &item, nil
}
