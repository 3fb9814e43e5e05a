// Package expiry реализует периодическую зачистку истёкших тарифов.
package expiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/wedmac/lead-marketplace/internal/cache"
	"github.com/wedmac/lead-marketplace/internal/lib/rabbitmq"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/metrics"
	"github.com/wedmac/lead-marketplace/internal/models"
)

// ExpiryRepository определяет методы хранилища для зачистки тарифов.
type ExpiryRepository interface {
	// ListExpiryCandidates возвращает артистов с подтверждённым тарифом.
	ListExpiryCandidates(ctx context.Context) ([]*models.ExpiryCandidate, error)
	// ExpireArtistPlan снимает тариф и возвращает число списанных кредитов.
	ExpireArtistPlan(ctx context.Context, cand *models.ExpiryCandidate, expiryDate time.Time) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Invalidate(key string) error
}

// Service реализует зачистку истёкших тарифов.
type Service struct {
	repo  ExpiryRepository
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// New создает новый экземпляр Service.
func New(repo ExpiryRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log, now: time.Now}
}

// Run запускает зачистку сразу и затем по тикеру, пока ctx не отменён.
func (s *Service) Run(ctx context.Context, channel *amqp.Channel, interval time.Duration) {
	s.Sweep(ctx, channel)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx, channel)
		}
	}
}

// Sweep снимает истёкшие тарифы со всех артистов. Ошибка по одному
// артисту логируется и не прерывает обход остальных.
func (s *Service) Sweep(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting expired plan sweep")
	candidates, err := s.repo.ListExpiryCandidates(ctx)
	if err != nil {
		s.log.Error("failed to list expiry candidates", sl.Err(err))
		return
	}

	now := s.now()
	var expired int
	for _, cand := range candidates {
		expiryDate, ok := planExpiryDate(cand)
		if !ok || now.Before(expiryDate) {
			continue
		}

		forfeited, err := s.repo.ExpireArtistPlan(ctx, cand, expiryDate)
		if err != nil {
			s.log.Error("failed to expire plan",
				slog.Int("artist_id", cand.ArtistID), sl.Err(err))
			continue
		}
		expired++
		metrics.PlansExpiredTotal.Inc()
		s.log.Info("plan expired",
			slog.Int("artist_id", cand.ArtistID),
			slog.String("plan", cand.PlanName),
			slog.Int("leads_forfeited", forfeited))

		if s.cache != nil {
			if err := s.cache.Invalidate(cache.BalanceKey(cand.ArtistID)); err != nil {
				s.log.Warn("failed to invalidate balance cache", sl.Err(err))
			}
		}
		if channel != nil {
			notice := models.ExpiryNotice{
				ArtistID:       cand.ArtistID,
				ArtistName:     cand.ArtistName,
				Phone:          cand.Phone,
				PlanName:       cand.PlanName,
				ExpiredAt:      expiryDate,
				LeadsForfeited: forfeited,
			}
			if err := rabbitmq.PublishMessage(channel, "notifications", "plan.expired", notice); err != nil {
				s.log.Error("failed to publish message", sl.Err(err))
			}
		}
	}
	s.log.Info("expired plan sweep finished",
		slog.Int("candidates", len(candidates)),
		slog.Int("expired", expired))
}

// planExpiryDate считает дату истечения. Обычный тариф живёт
// plan_purchase_date + duration_days + extended_days. Если админ продлил
// тариф вручную (дата покупки сброшена, retained_plan_date установлена),
// срок тарифа не прибавляется: истечение наступает через extended_days
// после даты продления.
func planExpiryDate(cand *models.ExpiryCandidate) (time.Time, bool) {
	if cand.PlanPurchaseDate == nil {
		if cand.RetainedPlanDate == nil {
			return time.Time{}, false
		}
		return cand.RetainedPlanDate.AddDate(0, 0, cand.ExtendedDays), true
	}
	return cand.PlanPurchaseDate.AddDate(0, 0, cand.DurationDays+cand.ExtendedDays), true
}
