package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wedmac/lead-marketplace/internal/models"
)

// GetPlan возвращает тариф по ID.
func (s *Storage) GetPlan(ctx context.Context, id int) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var plan models.SubscriptionPlan
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, price, total_leads, duration_days FROM subscription_plans WHERE id = $1`,
		id).Scan(&plan.ID, &plan.Name, &plan.Price, &plan.TotalLeads, &plan.DurationDays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &plan, nil
}

// ListPlans возвращает каталог тарифов.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, price, total_leads, duration_days FROM subscription_plans ORDER BY price`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionPlan
	for rows.Next() {
		var plan models.SubscriptionPlan
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.Price, &plan.TotalLeads, &plan.DurationDays); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreatePendingSubscription вставляет подписку со статусом оплаты pending
// и возвращает её ID.
func (s *Storage) CreatePendingSubscription(ctx context.Context, artistID, planID int, orderID string) (int, error) {
	const op = "storage.CreatePendingSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO subscriptions (artist_id, plan_id, order_id, payment_status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		artistID, planID, orderID, models.PaymentPending).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ActivateSubscription активирует подписку после успешной оплаты одной
// транзакцией: выставляет даты и статус, начисляет лиды тарифа через
// журнал и отмечает тариф на профиле артиста.
//
// Повторная активация уже успешной подписки возвращает ErrAlreadyActivated,
// ничего не меняя — подтверждение оплаты идемпотентно.
func (s *Storage) ActivateSubscription(ctx context.Context, orderID string) (*models.Subscription, error) {
	const op = "storage.ActivateSubscription"
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

	var sub models.Subscription
	err = tx.QueryRowContext(ctx,
		`SELECT id, artist_id, plan_id, payment_status FROM subscriptions
		 WHERE order_id = $1
		 FOR UPDATE`,
		orderID).Scan(&sub.ID, &sub.ArtistID, &sub.PlanID, &sub.PaymentStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.OrderID = orderID

	if sub.PaymentStatus == models.PaymentSuccess {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyActivated)
	}

	var plan models.SubscriptionPlan
	if err = tx.QueryRowContext(ctx,
		`SELECT id, name, price, total_leads, duration_days FROM subscription_plans WHERE id = $1`,
		sub.PlanID).Scan(&plan.ID, &plan.Name, &plan.Price, &plan.TotalLeads, &plan.DurationDays); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	end := now.AddDate(0, 0, plan.DurationDays)
	if _, err = tx.ExecContext(ctx,
		`UPDATE subscriptions
		 SET payment_status = $1, is_active = TRUE, start_date = $2, end_date = $3,
		     total_leads_allocated = $4
		 WHERE id = $5`,
		models.PaymentSuccess, now, end, plan.TotalLeads, sub.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = s.applyCredit(ctx, tx, sub.ArtistID, plan.TotalLeads, models.TxPurchase,
		"subscription purchase: "+plan.Name, orderID, &plan.ID); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE artists
		 SET current_plan_id = $1, plan_purchase_date = $2, plan_verified = TRUE,
		     extended_days = 0, retained_plan_date = NULL
		 WHERE id = $3`,
		plan.ID, now, sub.ArtistID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub.PaymentStatus = models.PaymentSuccess
	sub.IsActive = true
	sub.StartDate = &now
	sub.EndDate = &end
	sub.TotalLeadsAllocated = plan.TotalLeads
	return &sub, nil
}

// FindActiveSubscription возвращает последнюю активную подписку артиста
// на указанный тариф с успешной оплатой.
func (s *Storage) FindActiveSubscription(ctx context.Context, artistID, planID int) (*models.Subscription, error) {
	const op = "storage.FindActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sub models.Subscription
	var start, end sql.NullTime
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, artist_id, plan_id, order_id, payment_status, is_active,
		     start_date, end_date, total_leads_allocated, created_at
		 FROM subscriptions
		 WHERE artist_id = $1 AND plan_id = $2 AND is_active AND payment_status = $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		artistID, planID, models.PaymentSuccess).Scan(
		&sub.ID, &sub.ArtistID, &sub.PlanID, &sub.OrderID, &sub.PaymentStatus,
		&sub.IsActive, &start, &end, &sub.TotalLeadsAllocated, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if start.Valid {
		sub.StartDate = &start.Time
	}
	if end.Valid {
		sub.EndDate = &end.Time
	}
	return &sub, nil
}
