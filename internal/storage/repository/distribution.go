package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/wedmac/lead-marketplace/internal/models"
)

// ActiveStrategy возвращает активную стратегию распределения.
// Второе значение false означает, что активной стратегии нет
// и автоматическое назначение пропускается.
func (s *Storage) ActiveStrategy(ctx context.Context) (models.Strategy, bool, error) {
	const op = "storage.ActiveStrategy"
	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var raw string
	err := s.DB.QueryRowContext(ctx,
		`SELECT strategy FROM distribution_rules WHERE is_active LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	strategy, err := models.ParseStrategy(raw)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return strategy, true, nil
}

// SetRuleActive включает или выключает стратегию. При включении все
// остальные стратегии деактивируются, так что активна всегда не более одной.
func (s *Storage) SetRuleActive(ctx context.Context, strategy models.Strategy, active bool) error {
	const op = "storage.SetRuleActive"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	if active {
		if _, err = tx.ExecContext(ctx,
			`UPDATE distribution_rules SET is_active = FALSE WHERE strategy <> $1`,
			string(strategy)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE distribution_rules SET is_active = $1 WHERE strategy = $2`,
		active, string(strategy))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: unknown strategy %q", op, strategy)
	}
	return tx.Commit()
}

// AssignLeadAutomatically назначает новый лид артисту согласно активной
// стратегии. Вся операция — одна транзакция: состояние round-robin
// блокируется FOR UPDATE вместе с решением о назначении, указатель
// сохраняется до проверки кандидата (повтор после сбоя идёт дальше по
// кругу, а не к тому же артисту), списание кредита проходит через журнал.
//
// Возвращает ID назначенного артиста и применённую стратегию, либо 0,
// если активной стратегии нет или подходящий артист не найден.
func (s *Storage) AssignLeadAutomatically(ctx context.Context, leadID int) (int, models.Strategy, error) {
	const op = "storage.AssignLeadAutomatically"
	select {
	case <-ctx.Done():
		return 0, "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT strategy FROM distribution_rules WHERE is_active LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}
	strategy, err := models.ParseStrategy(raw)
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}

	var lastArtistID, defaultArtistID sql.NullInt64
	if err = tx.QueryRowContext(ctx,
		`SELECT last_artist_id, default_artist_id FROM distribution_state
		 WHERE id = 1 FOR UPDATE`).Scan(&lastArtistID, &defaultArtistID); err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}

	if _, _, _, err = lockLead(ctx, tx, leadID); err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}

	var candidate int
	switch strategy {
	case models.StrategyRoundRobin:
		candidate, err = s.nextRoundRobin(ctx, tx, lastArtistID)
	case models.StrategyCapacityBased:
		candidate, err = s.nextByCapacity(ctx, tx)
	}
	if err != nil {
		return 0, "", err
	}

	if candidate != 0 {
		eligible, err := s.isEligible(ctx, tx, candidate)
		if err != nil {
			return 0, "", err
		}
		if !eligible {
			candidate = 0
		}
	}

	// Запасной артист, когда стратегия активна, но подходящих нет.
	if candidate == 0 && defaultArtistID.Valid {
		fallback := int(defaultArtistID.Int64)
		eligible, err := s.isEligible(ctx, tx, fallback)
		if err != nil {
			return 0, "", err
		}
		if eligible {
			candidate = fallback
		}
	}

	if candidate == 0 {
		if err = tx.Commit(); err != nil {
			return 0, "", fmt.Errorf("%s: %w", op, err)
		}
		return 0, strategy, nil
	}

	entry, err := s.applyCredit(ctx, tx, candidate, -1, models.TxConsumption,
		"automatic lead assignment", "LEAD_"+strconv.Itoa(leadID), nil)
	if err != nil {
		return 0, "", err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO lead_claims (lead_id, artist_id) VALUES ($1, $2)`,
		leadID, candidate); err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE leads SET assigned_to = $1, status = $2,
		     total_claims = total_claims + 1, updated_at = now()
		 WHERE id = $3`,
		candidate, models.LeadStatusClaimed, leadID); err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}

	if err = s.insertActivityLog(ctx, tx, candidate, &leadID, models.ActivityAutoAssign,
		entry.CreditsBefore, entry.CreditsAfter, map[string]string{
			"strategy": string(strategy),
		}); err != nil {
		return 0, "", err
	}

	if err = tx.Commit(); err != nil {
		return 0, "", fmt.Errorf("%s: %w", op, err)
	}
	return candidate, strategy, nil
}

// nextRoundRobin выбирает следующего одобренного артиста по кругу
// и сохраняет указатель до проверки его пригодности.
func (s *Storage) nextRoundRobin(ctx context.Context, tx *sql.Tx, lastArtistID sql.NullInt64) (int, error) {
	const op = "storage.nextRoundRobin"

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM artists WHERE status = $1 ORDER BY id`,
		models.ArtistStatusApproved)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	_ = rows.Close()
	if len(ids) == 0 {
		return 0, nil
	}

	// Указатель вне списка (артист удалён или потерял одобрение)
	// сбрасывается на начало круга.
	nextIndex := 0
	if lastArtistID.Valid {
		for i, id := range ids {
			if id == int(lastArtistID.Int64) {
				nextIndex = (i + 1) % len(ids)
				break
			}
		}
	}
	next := ids[nextIndex]

	if _, err := tx.ExecContext(ctx,
		`UPDATE distribution_state SET last_artist_id = $1 WHERE id = 1`,
		next); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return next, nil
}

// nextByCapacity выбирает одобренного артиста с наибольшим балансом,
// при равенстве — с меньшим ID.
func (s *Storage) nextByCapacity(ctx context.Context, tx *sql.Tx) (int, error) {
	const op = "storage.nextByCapacity"

	var id int
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM artists
		 WHERE status = $1 AND available_leads > 0
		 ORDER BY available_leads DESC, id
		 LIMIT 1`,
		models.ArtistStatusApproved).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// isEligible проверяет пригодность кандидата: одобрен и баланс больше нуля.
func (s *Storage) isEligible(ctx context.Context, tx *sql.Tx, artistID int) (bool, error) {
	const op = "storage.isEligible"

	var eligible bool
	err := tx.QueryRowContext(ctx,
		`SELECT status = $1 AND available_leads > 0 FROM artists WHERE id = $2`,
		models.ArtistStatusApproved, artistID).Scan(&eligible)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return eligible, nil
}

// SetDefaultArtist назначает запасного артиста для распределения.
func (s *Storage) SetDefaultArtist(ctx context.Context, artistID int) error {
	const op = "storage.SetDefaultArtist"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM artists WHERE id = $1)`, artistID).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, ErrArtistNotFound)
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE distribution_state SET default_artist_id = $1 WHERE id = 1`,
		artistID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
