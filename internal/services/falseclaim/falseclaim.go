// Package falseclaim содержит логику жалоб на ложные лиды: подачу,
// просмотр и разрешение с возвратом кредита.
package falseclaim

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/wedmac/lead-marketplace/internal/lib/rabbitmq"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
)

// FalseClaimRepository определяет методы хранилища для работы с жалобами.
type FalseClaimRepository interface {
	// CreateFalseClaim регистрирует жалобу артиста на забранный им лид.
	CreateFalseClaim(ctx context.Context, leadID, artistID int, reason string) (*models.FalseClaim, error)
	// ListFalseClaims возвращает жалобы с фильтром по статусу.
	ListFalseClaims(ctx context.Context, status string, limit, offset int) ([]*models.FalseClaim, error)
	// ResolveFalseClaim разрешает жалобу; при одобрении возвращает кредит.
	ResolveFalseClaim(ctx context.Context, claimID int, status, adminNote, resolvedBy string) (*models.FalseClaim, error)
}

// Service реализует работу с жалобами на ложные лиды.
type Service struct {
	repo FalseClaimRepository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo FalseClaimRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Raise регистрирует жалобу артиста. Жалоба принимается только на лид,
// который артист действительно забирал.
func (s *Service) Raise(ctx context.Context, artistID int, req models.RaiseFalseClaimRequest) (*models.FalseClaim, error) {
	claim, err := s.repo.CreateFalseClaim(ctx, req.LeadID, artistID, req.Reason)
	if err != nil {
		return nil, err
	}
	s.log.Info("false claim raised",
		slog.Int("id", claim.ID),
		slog.Int("lead_id", req.LeadID),
		slog.Int("artist_id", artistID))
	return claim, nil
}

// List возвращает жалобы с фильтром по статусу и пагинацией.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*models.FalseClaim, error) {
	return s.repo.ListFalseClaims(ctx, status, limit, offset)
}

// Resolve разрешает жалобу от имени админа и публикует уведомление
// артисту. Ошибка публикации не откатывает разрешение.
func (s *Service) Resolve(ctx context.Context, channel *amqp.Channel, claimID int,
	resolvedBy string, req models.ResolveFalseClaimRequest) (*models.FalseClaim, error) {
	claim, err := s.repo.ResolveFalseClaim(ctx, claimID, req.Status, req.AdminNote, resolvedBy)
	if err != nil {
		return nil, err
	}
	s.log.Info("false claim resolved",
		slog.Int("id", claim.ID),
		slog.String("status", claim.Status),
		slog.String("resolved_by", resolvedBy))

	if channel != nil {
		if err := rabbitmq.PublishMessage(channel, "notifications", "falseclaim.resolved", claim); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
	return claim, nil
}
