package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wedmac/lead-marketplace/internal/models"
)

// applyCredit — единственная точка изменения баланса артиста.
//
// Блокирует строку артиста FOR UPDATE, проверяет достаточность средств
// при списании, вставляет одну запись журнала с балансом до/после и
// обновляет artists.available_leads в той же транзакции. Все пути —
// ручной claim, бронирование, автораспределение, покупка, возврат,
// экспирация — проходят через эту функцию, поэтому журнал полон.
func (s *Storage) applyCredit(ctx context.Context, tx *sql.Tx, artistID, amount int,
	txType, description, referenceID string, planID *int) (*models.CreditTransaction, error) {
	const op = "storage.applyCredit"

	var before int
	err := tx.QueryRowContext(ctx,
		`SELECT available_leads FROM artists WHERE id = $1 FOR UPDATE`,
		artistID).Scan(&before)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrArtistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	after := before + amount
	if after < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientCredits)
	}

	entry := &models.CreditTransaction{
		ArtistID:      artistID,
		PlanID:        planID,
		Type:          txType,
		CreditsBefore: before,
		Amount:        amount,
		CreditsAfter:  after,
		Description:   description,
		ReferenceID:   referenceID,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO credit_transactions (artist_id, plan_id, transaction_type,
		     credits_before, amount, credits_after, description, reference_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		artistID, planID, txType, before, amount, after, description, referenceID).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE artists SET available_leads = $1 WHERE id = $2`,
		after, artistID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entry, nil
}

// Credit начисляет артисту amount кредитов в отдельной транзакции
// и возвращает созданную запись журнала.
func (s *Storage) Credit(ctx context.Context, artistID, amount int,
	txType, description, referenceID string) (*models.CreditTransaction, error) {
	const op = "storage.Credit"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%s: amount must be positive", op)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	entry, err := s.applyCredit(ctx, tx, artistID, amount, txType, description, referenceID, nil)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// Debit списывает с артиста amount кредитов в отдельной транзакции.
// При недостатке средств возвращает ErrInsufficientCredits, не меняя
// ни баланс, ни журнал.
func (s *Storage) Debit(ctx context.Context, artistID, amount int,
	txType, description, referenceID string) (*models.CreditTransaction, error) {
	const op = "storage.Debit"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%s: amount must be positive", op)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	entry, err := s.applyCredit(ctx, tx, artistID, -amount, txType, description, referenceID, nil)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// GetBalance возвращает текущий кредитный баланс артиста.
func (s *Storage) GetBalance(ctx context.Context, artistID int) (int, error) {
	const op = "storage.GetBalance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var balance int
	err := s.DB.QueryRowContext(ctx,
		`SELECT available_leads FROM artists WHERE id = $1`, artistID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, ErrArtistNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// ListTransactions возвращает историю операций артиста с фильтрами и пагинацией,
// отсортированную от новых к старым.
func (s *Storage) ListTransactions(ctx context.Context, artistID int,
	filter models.HistoryFilter, limit, offset int) ([]*models.CreditTransaction, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	conditions := []string{"artist_id = $1"}
	args := []any{artistID}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conditions = append(conditions, fmt.Sprintf("transaction_type = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT id, artist_id, plan_id, transaction_type,
	          credits_before, amount, credits_after, description, reference_id, created_at
	      FROM credit_transactions
	      WHERE %s
	      ORDER BY created_at DESC, id DESC
	      LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), len(args)-1, len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CreditTransaction
	for rows.Next() {
		var item models.CreditTransaction
		var planID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.ArtistID, &planID, &item.Type,
			&item.CreditsBefore, &item.Amount, &item.CreditsAfter,
			&item.Description, &item.ReferenceID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if planID.Valid {
			v := int(planID.Int64)
			item.PlanID = &v
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumTransactions возвращает сумму всех операций журнала артиста.
// По инварианту журнала она совпадает с текущим балансом.
func (s *Storage) SumTransactions(ctx context.Context, artistID int) (int, error) {
	const op = "storage.SumTransactions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sum int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE artist_id = $1`,
		artistID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}
