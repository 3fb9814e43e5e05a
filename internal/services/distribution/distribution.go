// Package distribution содержит логику управления стратегиями
// автоматического распределения лидов.
package distribution

import (
	"context"
	"log/slog"

	"github.com/wedmac/lead-marketplace/internal/models"
)

// DistributionRepository определяет методы хранилища для правил распределения.
type DistributionRepository interface {
	// ActiveStrategy возвращает активную стратегию, если она есть.
	ActiveStrategy(ctx context.Context) (models.Strategy, bool, error)
	// SetRuleActive включает стратегию, выключая остальные, либо выключает её.
	SetRuleActive(ctx context.Context, strategy models.Strategy, active bool) error
	// SetDefaultArtist задаёт запасного артиста для назначения.
	SetDefaultArtist(ctx context.Context, artistID int) error
}

// Service реализует управление правилами распределения.
type Service struct {
	repo DistributionRepository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo DistributionRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Active возвращает активную стратегию распределения, если она есть.
func (s *Service) Active(ctx context.Context) (models.Strategy, bool, error) {
	return s.repo.ActiveStrategy(ctx)
}

// SetRule включает или выключает стратегию. Активной может быть не более
// одной стратегии: включение новой выключает остальные.
func (s *Service) SetRule(ctx context.Context, req models.DistributionRuleRequest) (models.Strategy, error) {
	strategy, err := models.ParseStrategy(req.Strategy)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetRuleActive(ctx, strategy, req.IsActive); err != nil {
		return "", err
	}
	s.log.Info("distribution rule updated",
		slog.String("strategy", string(strategy)),
		slog.Bool("is_active", req.IsActive))
	return strategy, nil
}

// SetDefaultArtist задаёт запасного артиста, получающего лиды, когда
// стратегия не нашла подходящего кандидата.
func (s *Service) SetDefaultArtist(ctx context.Context, artistID int) error {
	if err := s.repo.SetDefaultArtist(ctx, artistID); err != nil {
		return err
	}
	s.log.Info("default artist updated", slog.Int("artist_id", artistID))
	return nil
}
