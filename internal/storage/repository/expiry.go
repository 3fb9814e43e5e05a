package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wedmac/lead-marketplace/internal/models"
)

// ListExpiryCandidates возвращает всех артистов с подтверждённым тарифом
// вместе с параметрами тарифа. Решение об истечении принимает сервис,
// хранилище лишь отдаёт кандидатов.
func (s *Storage) ListExpiryCandidates(ctx context.Context) ([]*models.ExpiryCandidate, error) {
	const op = "storage.ListExpiryCandidates"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT a.id, a.username, a.phone, a.available_leads,
		        a.plan_purchase_date, a.retained_plan_date, a.extended_days,
		        p.id, p.name, p.price, p.total_leads, p.duration_days
		 FROM artists a
		 JOIN subscription_plans p ON p.id = a.current_plan_id
		 WHERE a.plan_verified AND a.is_active
		 ORDER BY a.id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiryCandidate
	for rows.Next() {
		var item models.ExpiryCandidate
		var purchased, retained sql.NullTime
		if err := rows.Scan(&item.ArtistID, &item.ArtistName, &item.Phone, &item.AvailableLeads,
			&purchased, &retained, &item.ExtendedDays,
			&item.PlanID, &item.PlanName, &item.PlanPrice, &item.PlanTotalLeads, &item.DurationDays); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if purchased.Valid {
			v := purchased.Time
			item.PlanPurchaseDate = &v
		}
		if retained.Valid {
			v := retained.Time
			item.RetainedPlanDate = &v
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExpireArtistPlan снимает истёкший тариф с артиста в одной транзакции:
// архивирует параметры тарифа, обнуляет баланс через журнал (adjustment),
// очищает поля тарифа и деактивирует подписку. Строка артиста блокируется
// FOR UPDATE, так что конкурирующий claim либо увидит уже обнулённый
// баланс, либо успеет списать кредит до экспирации.
func (s *Storage) ExpireArtistPlan(ctx context.Context, cand *models.ExpiryCandidate, expiryDate time.Time) (int, error) {
	const op = "storage.ExpireArtistPlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var balance int
	var planID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT available_leads, current_plan_id FROM artists WHERE id = $1 FOR UPDATE`,
		cand.ArtistID).Scan(&balance, &planID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, ErrArtistNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !planID.Valid || int(planID.Int64) != cand.PlanID {
		// Тариф сменился между выборкой кандидатов и экспирацией.
		return 0, nil
	}

	details, err := json.Marshal(map[string]any{
		"plan_name":     cand.PlanName,
		"plan_price":    cand.PlanPrice,
		"total_leads":   cand.PlanTotalLeads,
		"duration_days": cand.DurationDays,
		"extended_days": cand.ExtendedDays,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO expired_plan_logs (artist_id, plan_id, plan_purchase_date,
		     plan_expiry_date, available_leads_before, plan_details)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		cand.ArtistID, cand.PlanID, cand.PlanPurchaseDate, expiryDate, balance, details); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if balance > 0 {
		entry, err := s.applyCredit(ctx, tx, cand.ArtistID, -balance,
			models.TxAdjustment, "Plan expired, remaining credits forfeited",
			fmt.Sprintf("EXPIRY_%d", cand.PlanID), &cand.PlanID)
		if err != nil {
			return 0, err
		}
		if err := s.insertActivityLog(ctx, tx, cand.ArtistID, nil, models.ActivityExpiry,
			entry.CreditsBefore, entry.CreditsAfter,
			map[string]string{"plan_name": cand.PlanName}); err != nil {
			return 0, err
		}
	} else {
		if err := s.insertActivityLog(ctx, tx, cand.ArtistID, nil, models.ActivityExpiry,
			0, 0, map[string]string{"plan_name": cand.PlanName}); err != nil {
			return 0, err
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE artists
		 SET plan_verified = FALSE, current_plan_id = NULL,
		     plan_purchase_date = NULL, retained_plan_date = NULL, extended_days = 0
		 WHERE id = $1`,
		cand.ArtistID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE subscriptions SET is_active = FALSE
		 WHERE artist_id = $1 AND plan_id = $2 AND is_active`,
		cand.ArtistID, cand.PlanID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}
