package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/wedmac/lead-marketplace/internal/models"
)

const referralRewardLeads = 3

// RegisterArtist сохраняет нового артиста и возвращает его ID.
func (s *Storage) RegisterArtist(ctx context.Context, artist models.Artist) (int, error) {
	const op = "storage.RegisterArtist"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO artists (username, email, phone, password_hash, role, status,
	              referral_code, referred_by_code)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		artist.Username, artist.Email, artist.Phone, artist.PasswordHash, artist.Role,
		models.ArtistStatusPending, artist.ReferralCode, artist.ReferredByCode).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

func scanArtist(row *sql.Row) (*models.Artist, error) {
	a := &models.Artist{}
	var currentPlanID sql.NullInt64
	var planPurchaseDate, retainedPlanDate sql.NullTime
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Phone, &a.PasswordHash,
		&a.Role, &a.Status, &a.IsActive, &a.AvailableLeads, &a.PlanVerified,
		&currentPlanID, &planPurchaseDate, &retainedPlanDate, &a.ExtendedDays,
		&a.ReferralCode, &a.ReferredByCode, &a.InternalNotes, &a.CreatedAt); err != nil {
		return nil, err
	}
	if currentPlanID.Valid {
		v := int(currentPlanID.Int64)
		a.CurrentPlanID = &v
	}
	if planPurchaseDate.Valid {
		a.PlanPurchaseDate = &planPurchaseDate.Time
	}
	if retainedPlanDate.Valid {
		a.RetainedPlanDate = &retainedPlanDate.Time
	}
	return a, nil
}

const artistColumns = `id, username, email, phone, password_hash, role, status, is_active,
	available_leads, plan_verified, current_plan_id, plan_purchase_date,
	retained_plan_date, extended_days, referral_code, referred_by_code,
	internal_notes, created_at`

// GetArtist возвращает артиста по ID.
func (s *Storage) GetArtist(ctx context.Context, id int) (*models.Artist, error) {
	const op = "storage.GetArtist"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+artistColumns+` FROM artists WHERE id = $1`, id)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrArtistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// GetArtistByUsername возвращает артиста по имени пользователя.
func (s *Storage) GetArtistByUsername(ctx context.Context, username string) (*models.Artist, error) {
	const op = "storage.GetArtistByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+artistColumns+` FROM artists WHERE username = $1`, username)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrArtistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// ModerateArtist меняет статус профиля артиста одной транзакцией.
//
// При первом переходе в approved начисляет реферальное вознаграждение
// пригласившему артисту. Защита от повторного начисления: перед записью
// проверяется наличие реферальной операции с reference_id REF_<artist_id>,
// поэтому повторный вызов одобрения не создаёт второй записи журнала.
// Возвращает профиль после изменения и флаг начисления вознаграждения.
func (s *Storage) ModerateArtist(ctx context.Context, artistID int, newStatus, notes string) (*models.Artist, bool, error) {
	const op = "storage.ModerateArtist"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var currentStatus, referredByCode string
	err = tx.QueryRowContext(ctx,
		`SELECT status, referred_by_code FROM artists WHERE id = $1 FOR UPDATE`,
		artistID).Scan(&currentStatus, &referredByCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, ErrArtistNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if currentStatus == models.ArtistStatusApproved && newStatus == models.ArtistStatusApproved {
		return nil, false, fmt.Errorf("%s: %w", op, ErrAlreadyApproved)
	}

	rewarded := false
	if newStatus == models.ArtistStatusApproved && currentStatus != models.ArtistStatusApproved && referredByCode != "" {
		rewarded, err = s.rewardReferrer(ctx, tx, artistID, referredByCode)
		if err != nil {
			return nil, false, err
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE artists SET status = $1, internal_notes = $2 WHERE id = $3`,
		newStatus, notes, artistID); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	artist, err := s.GetArtist(ctx, artistID)
	if err != nil {
		return nil, false, err
	}
	return artist, rewarded, nil
}

// rewardReferrer начисляет реферальные кредиты пригласившему артисту.
// Неизвестный реферальный код не считается ошибкой модерации.
func (s *Storage) rewardReferrer(ctx context.Context, tx *sql.Tx, approvedArtistID int, code string) (bool, error) {
	const op = "storage.rewardReferrer"

	var referrerID int
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM artists WHERE referral_code = $1`, code).Scan(&referrerID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	referenceID := "REF_" + strconv.Itoa(approvedArtistID)
	var exists bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credit_transactions
		     WHERE artist_id = $1 AND transaction_type = $2 AND reference_id = $3)`,
		referrerID, models.TxReferral, referenceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return false, nil
	}

	if _, err = s.applyCredit(ctx, tx, referrerID, referralRewardLeads, models.TxReferral,
		"referral reward", referenceID, nil); err != nil {
		return false, err
	}
	return true, nil
}
