package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/wedmac/lead-marketplace/internal/models"
)

// CreateLead вставляет новую заявку и возвращает её ID.
func (s *Storage) CreateLead(ctx context.Context, lead models.Lead) (int, error) {
	const op = "storage.CreateLead"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO leads (first_name, last_name, phone, email, event_type,
	              requirements, booking_date, source, status, max_claims, requested_artist_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		lead.FirstName, lead.LastName, lead.Phone, lead.Email, lead.EventType,
		lead.Requirements, lead.BookingDate, lead.Source, models.LeadStatusNew,
		lead.MaxClaims, lead.RequestedArtistID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetLead возвращает неудалённый лид по ID.
func (s *Storage) GetLead(ctx context.Context, id int) (*models.Lead, error) {
	const op = "storage.GetLead"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, first_name, last_name, phone, email, event_type, requirements,
	              booking_date, source, status, assigned_to, requested_artist_id,
	              max_claims, total_claims, total_bookings, created_at, updated_at
	          FROM leads WHERE id = $1 AND NOT is_deleted`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Lead
	var assignedTo, requestedArtist sql.NullInt64
	if err := row.Scan(&result.ID, &result.FirstName, &result.LastName, &result.Phone,
		&result.Email, &result.EventType, &result.Requirements, &result.BookingDate,
		&result.Source, &result.Status, &assignedTo, &requestedArtist,
		&result.MaxClaims, &result.TotalClaims, &result.TotalBookings,
		&result.CreatedAt, &result.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrLeadNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if assignedTo.Valid {
		v := int(assignedTo.Int64)
		result.AssignedTo = &v
	}
	if requestedArtist.Valid {
		v := int(requestedArtist.Int64)
		result.RequestedArtistID = &v
	}
	return &result, nil
}

// lockLead блокирует строку неудалённого лида FOR UPDATE и возвращает
// поля, участвующие в решениях claim/book.
func lockLead(ctx context.Context, tx *sql.Tx, leadID int) (maxClaims, totalClaims int, status string, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT max_claims, total_claims, status FROM leads
		 WHERE id = $1 AND NOT is_deleted
		 FOR UPDATE`,
		leadID).Scan(&maxClaims, &totalClaims, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, "", ErrLeadNotFound
	}
	return maxClaims, totalClaims, status, err
}

// ClaimLead выполняет весь claim одной транзакцией: блокировка лида,
// проверка повторного участия и вместимости, списание одного кредита
// через журнал, вставка участия и запись активности. Параллельные claim
// по одному лиду сериализуются на блокировке строки, поэтому превысить
// max_claims невозможно. Возвращает число артистов, забравших лид.
func (s *Storage) ClaimLead(ctx context.Context, leadID, artistID int) (int, error) {
	const op = "storage.ClaimLead"
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

	maxClaims, totalClaims, _, err := lockLead(ctx, tx, leadID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var alreadyClaimed bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM lead_claims WHERE lead_id = $1 AND artist_id = $2)`,
		leadID, artistID).Scan(&alreadyClaimed); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if alreadyClaimed {
		return 0, fmt.Errorf("%s: %w", op, ErrAlreadyClaimed)
	}
	if totalClaims >= maxClaims {
		return 0, fmt.Errorf("%s: %w", op, ErrCapacityReached)
	}

	entry, err := s.applyCredit(ctx, tx, artistID, -1, models.TxConsumption,
		"lead claim", "LEAD_"+strconv.Itoa(leadID), nil)
	if err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO lead_claims (lead_id, artist_id) VALUES ($1, $2)`,
		leadID, artistID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	claimCount := totalClaims + 1
	if _, err = tx.ExecContext(ctx,
		`UPDATE leads SET total_claims = $1, status = $2, updated_at = now() WHERE id = $3`,
		claimCount, models.LeadStatusClaimed, leadID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.insertActivityLog(ctx, tx, artistID, &leadID, models.ActivityClaim,
		entry.CreditsBefore, entry.CreditsAfter, map[string]string{
			"claim_count": strconv.Itoa(claimCount),
		}); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return claimCount, nil
}

// BookLead выполняет бронирование одной транзакцией. Артист обязан
// предварительно забрать лид; в политике единственного бронирования
// лид может быть забронирован не более чем одним артистом.
func (s *Storage) BookLead(ctx context.Context, leadID, artistID int) error {
	const op = "storage.BookLead"
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

	_, _, _, err = lockLead(ctx, tx, leadID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var claimed bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM lead_claims WHERE lead_id = $1 AND artist_id = $2)`,
		leadID, artistID).Scan(&claimed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !claimed {
		return fmt.Errorf("%s: %w", op, ErrNotClaimed)
	}

	var bookedBy sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT artist_id FROM lead_bookings WHERE lead_id = $1 LIMIT 1`,
		leadID).Scan(&bookedBy)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if bookedBy.Valid {
		if int(bookedBy.Int64) == artistID {
			return fmt.Errorf("%s: %w", op, ErrAlreadyBooked)
		}
		return fmt.Errorf("%s: %w", op, ErrAlreadyBookedByOther)
	}

	entry, err := s.applyCredit(ctx, tx, artistID, -1, models.TxConsumption,
		"lead booking", "LEAD_"+strconv.Itoa(leadID), nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO lead_bookings (lead_id, artist_id) VALUES ($1, $2)`,
		leadID, artistID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE leads SET total_bookings = total_bookings + 1, status = $1, updated_at = now()
		 WHERE id = $2`,
		models.LeadStatusBooked, leadID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = s.insertActivityLog(ctx, tx, artistID, &leadID, models.ActivityBook,
		entry.CreditsBefore, entry.CreditsAfter, nil); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListClaimedLeads возвращает лиды, забранные артистом, с пагинацией.
func (s *Storage) ListClaimedLeads(ctx context.Context, artistID, limit, offset int) ([]*models.Lead, error) {
	const op = "storage.ListClaimedLeads"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT l.id, l.first_name, l.last_name, l.phone, l.email, l.event_type,
	              l.requirements, l.booking_date, l.source, l.status,
	              l.max_claims, l.total_claims, l.total_bookings, l.created_at, l.updated_at
	          FROM leads l
	          JOIN lead_claims c ON c.lead_id = l.id
	          WHERE c.artist_id = $1 AND NOT l.is_deleted
	          ORDER BY c.claimed_at DESC
	          LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, artistID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Lead
	for rows.Next() {
		var item models.Lead
		if err := rows.Scan(&item.ID, &item.FirstName, &item.LastName, &item.Phone,
			&item.Email, &item.EventType, &item.Requirements, &item.BookingDate,
			&item.Source, &item.Status, &item.MaxClaims, &item.TotalClaims,
			&item.TotalBookings, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListLeads возвращает все неудалённые лиды для админки, новые сверху.
// Пустой status означает лиды в любом статусе.
func (s *Storage) ListLeads(ctx context.Context, status string, limit, offset int) ([]*models.Lead, error) {
	const op = "storage.ListLeads"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, first_name, last_name, phone, email, event_type,
	              requirements, booking_date, source, status,
	              max_claims, total_claims, total_bookings, created_at, updated_at
	          FROM leads
	          WHERE NOT is_deleted AND ($1 = '' OR status = $1)
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Lead
	for rows.Next() {
		var item models.Lead
		if err := rows.Scan(&item.ID, &item.FirstName, &item.LastName, &item.Phone,
			&item.Email, &item.EventType, &item.Requirements, &item.BookingDate,
			&item.Source, &item.Status, &item.MaxClaims, &item.TotalClaims,
			&item.TotalBookings, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetMaxClaims меняет вместимость лида. Отклоняет значение меньше
// текущего числа забравших артистов.
func (s *Storage) SetMaxClaims(ctx context.Context, leadID, maxClaims int) (*models.ClaimStats, error) {
	const op = "storage.SetMaxClaims"
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

	_, totalClaims, _, err := lockLead(ctx, tx, leadID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if totalClaims > maxClaims {
		return nil, fmt.Errorf("%s: %w", op, ErrMaxClaimsTooLow)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE leads SET max_claims = $1, updated_at = now() WHERE id = $2`,
		maxClaims, leadID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.ClaimStats{
		LeadID:         leadID,
		MaxClaims:      maxClaims,
		ClaimedCount:   totalClaims,
		AvailableSlots: maxClaims - totalClaims,
	}, nil
}

// BulkSetMaxClaims меняет вместимость всех неудалённых лидов сразу.
// Если хотя бы у одного лида уже больше участников, чем новое значение,
// ни один лид не обновляется и возвращается список проблемных лидов.
func (s *Storage) BulkSetMaxClaims(ctx context.Context, maxClaims int) (int, []models.ClaimStats, error) {
	const op = "storage.BulkSetMaxClaims"
	select {
	case <-ctx.Done():
		return 0, nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	// Блокируем все строки до проверки, иначе claim, закоммиченный между
	// проверкой и обновлением, оставит total_claims больше нового лимита.
	rows, err := tx.QueryContext(ctx,
		`SELECT id, total_claims FROM leads
		 WHERE NOT is_deleted
		 ORDER BY id
		 FOR UPDATE`)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	var problematic []models.ClaimStats
	for rows.Next() {
		var stat models.ClaimStats
		if err := rows.Scan(&stat.LeadID, &stat.ClaimedCount); err != nil {
			_ = rows.Close()
			return 0, nil, fmt.Errorf("%s: %w", op, err)
		}
		if stat.ClaimedCount > maxClaims {
			problematic = append(problematic, stat)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	_ = rows.Close()
	if len(problematic) > 0 {
		return 0, problematic, fmt.Errorf("%s: %w", op, ErrMaxClaimsTooLow)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE leads SET max_claims = $1, updated_at = now() WHERE NOT is_deleted`,
		maxClaims)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	return int(updated), nil, nil
}

// ClaimStats возвращает сводку по вместимости лида для админских ручек.
func (s *Storage) ClaimStats(ctx context.Context, leadID int) (*models.ClaimStats, error) {
	const op = "storage.ClaimStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var stats models.ClaimStats
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, max_claims, total_claims FROM leads WHERE id = $1 AND NOT is_deleted`,
		leadID).Scan(&stats.LeadID, &stats.MaxClaims, &stats.ClaimedCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrLeadNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats.AvailableSlots = stats.MaxClaims - stats.ClaimedCount
	if stats.AvailableSlots < 0 {
		stats.AvailableSlots = 0
	}
	return &stats, nil
}
