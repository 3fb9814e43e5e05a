// Package lead содержит бизнес-логику работы с лидами: приём заявок,
// ручной claim, бронирование и админское управление вместимостью.
package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wedmac/lead-marketplace/internal/cache"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/metrics"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// LeadRepository определяет методы хранилища для работы с лидами.
type LeadRepository interface {
	// CreateLead добавляет новый лид и возвращает его ID.
	CreateLead(ctx context.Context, lead models.Lead) (int, error)
	// GetLead возвращает лид по ID.
	GetLead(ctx context.Context, id int) (*models.Lead, error)
	// ClaimLead атомарно забирает лид для артиста и возвращает
	// порядковый номер claim среди max_claims.
	ClaimLead(ctx context.Context, leadID, artistID int) (int, error)
	// BookLead атомарно бронирует забранный лид.
	BookLead(ctx context.Context, leadID, artistID int) error
	// ListClaimedLeads возвращает лиды, забранные артистом.
	ListClaimedLeads(ctx context.Context, artistID, limit, offset int) ([]*models.Lead, error)
	// ListLeads возвращает все неудалённые лиды.
	ListLeads(ctx context.Context, status string, limit, offset int) ([]*models.Lead, error)
	// SetMaxClaims меняет вместимость одного лида.
	SetMaxClaims(ctx context.Context, leadID, maxClaims int) (*models.ClaimStats, error)
	// BulkSetMaxClaims меняет вместимость всех лидов и возвращает
	// лиды, у которых текущее число claim превышает новый лимит.
	BulkSetMaxClaims(ctx context.Context, maxClaims int) (int, []models.ClaimStats, error)
	// ClaimStats возвращает сводку по вместимости лида.
	ClaimStats(ctx context.Context, leadID int) (*models.ClaimStats, error)
	// AssignLeadAutomatically назначает лид по активной стратегии
	// и возвращает ID артиста (0 — не назначен) и стратегию.
	AssignLeadAutomatically(ctx context.Context, leadID int) (int, models.Strategy, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Сколько артистов могут одновременно удерживать новый лид.
const defaultMaxClaims = 3

// Service реализует бизнес-логику работы с лидами.
type Service struct {
	repo  LeadRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo LeadRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Create принимает публичную заявку, сохраняет лид и пытается назначить
// его по активной стратегии распределения. Ошибка назначения не роняет
// приём заявки: лид остаётся в общем пуле.
func (s *Service) Create(ctx context.Context, req models.CreateLeadRequest) (int, *models.Lead, error) {
	bookingDate, err := time.Parse("02-01-2006", req.BookingDate)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid booking date: %w", err)
	}

	source := req.Source
	if source == "" {
		source = "website"
	}
	lead := models.Lead{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Email:        req.Email,
		EventType:    req.EventType,
		Requirements: req.Requirements,
		BookingDate:  bookingDate,
		Source:       source,
		Status:       models.LeadStatusNew,
		MaxClaims:    defaultMaxClaims,
	}

	id, err := s.repo.CreateLead(ctx, lead)
	if err != nil {
		return 0, nil, err
	}
	s.log.Info("created new lead", slog.Int("id", id))

	assignee, strategy, err := s.repo.AssignLeadAutomatically(ctx, id)
	if err != nil {
		s.log.Error("automatic assignment failed", slog.Int("lead_id", id), sl.Err(err))
	} else if assignee != 0 {
		metrics.AssignmentsTotal.WithLabelValues(string(strategy)).Inc()
		s.log.Info("lead auto-assigned",
			slog.Int("lead_id", id),
			slog.Int("artist_id", assignee),
			slog.String("strategy", string(strategy)))
		if err := s.cache.Invalidate(cache.BalanceKey(assignee)); err != nil {
			s.log.Warn("failed to invalidate balance cache", sl.Err(err))
		}
	}

	result, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	return id, result, nil
}

// Claim забирает лид для артиста. Возвращает порядковый номер claim
// (N из max_claims). Конкурентные попытки сериализуются блокировкой
// строки лида, поэтому лимит не превышается.
func (s *Service) Claim(ctx context.Context, leadID, artistID int) (int, *models.ClaimStats, error) {
	claimCount, err := s.repo.ClaimLead(ctx, leadID, artistID)
	if err != nil {
		metrics.ClaimsTotal.WithLabelValues(claimResult(err)).Inc()
		return 0, nil, err
	}
	metrics.ClaimsTotal.WithLabelValues("claimed").Inc()
	s.log.Info("lead claimed",
		slog.Int("lead_id", leadID),
		slog.Int("artist_id", artistID),
		slog.Int("claim_count", claimCount))

	if err := s.cache.Invalidate(cache.BalanceKey(artistID)); err != nil {
		s.log.Warn("failed to invalidate balance cache", sl.Err(err))
	}

	stats, err := s.repo.ClaimStats(ctx, leadID)
	if err != nil {
		return 0, nil, err
	}
	return claimCount, stats, nil
}

// Book бронирует лид за артистом. Лид должен быть предварительно забран
// этим артистом, и у лида может быть только одно бронирование.
func (s *Service) Book(ctx context.Context, leadID, artistID int) error {
	if err := s.repo.BookLead(ctx, leadID, artistID); err != nil {
		return err
	}
	metrics.BookingsTotal.Inc()
	s.log.Info("lead booked", slog.Int("lead_id", leadID), slog.Int("artist_id", artistID))

	if err := s.cache.Invalidate(cache.BalanceKey(artistID)); err != nil {
		s.log.Warn("failed to invalidate balance cache", sl.Err(err))
	}
	return nil
}

// MyClaims возвращает лиды, забранные артистом, с пагинацией.
func (s *Service) MyClaims(ctx context.Context, artistID, limit, offset int) ([]*models.Lead, error) {
	return s.repo.ListClaimedLeads(ctx, artistID, limit, offset)
}

// Get возвращает лид по ID.
func (s *Service) Get(ctx context.Context, leadID int) (*models.Lead, error) {
	return s.repo.GetLead(ctx, leadID)
}

// List возвращает лиды для админки с опциональным фильтром по статусу.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*models.Lead, error) {
	return s.repo.ListLeads(ctx, status, limit, offset)
}

// Stats возвращает сводку по вместимости лида.
func (s *Service) Stats(ctx context.Context, leadID int) (*models.ClaimStats, error) {
	return s.repo.ClaimStats(ctx, leadID)
}

// SetMaxClaims меняет вместимость одного лида. Новый лимит не может быть
// меньше текущего числа claim.
func (s *Service) SetMaxClaims(ctx context.Context, leadID, maxClaims int) (*models.ClaimStats, error) {
	stats, err := s.repo.SetMaxClaims(ctx, leadID, maxClaims)
	if err != nil {
		return nil, err
	}
	s.log.Info("max claims updated", slog.Int("lead_id", leadID), slog.Int("max_claims", maxClaims))
	return stats, nil
}

// BulkSetMaxClaims меняет вместимость всех лидов. Лиды, у которых текущее
// число claim превышает новый лимит, не изменяются и возвращаются отдельным
// списком для ручного разбора.
func (s *Service) BulkSetMaxClaims(ctx context.Context, maxClaims int) (int, []models.ClaimStats, error) {
	updated, problematic, err := s.repo.BulkSetMaxClaims(ctx, maxClaims)
	if err != nil {
		return 0, nil, err
	}
	s.log.Info("bulk max claims updated",
		slog.Int("max_claims", maxClaims),
		slog.Int("updated", updated),
		slog.Int("skipped", len(problematic)))
	return updated, problematic, nil
}

func claimResult(err error) string {
	switch {
	case errors.Is(err, repository.ErrAlreadyClaimed):
		return "duplicate"
	case errors.Is(err, repository.ErrCapacityReached):
		return "capacity_reached"
	case errors.Is(err, repository.ErrInsufficientCredits):
		return "insufficient_credits"
	default:
		return "error"
	}
}
