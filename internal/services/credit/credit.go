// Package credit содержит бизнес-логику чтения кредитного баланса
// и истории операций артиста.
package credit

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/wedmac/lead-marketplace/internal/cache"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
)

// CreditRepository определяет методы хранилища для работы с кредитами.
type CreditRepository interface {
	// GetBalance возвращает текущий баланс артиста.
	GetBalance(ctx context.Context, artistID int) (int, error)
	// ListTransactions возвращает историю операций с фильтрами.
	ListTransactions(ctx context.Context, artistID int, filter models.HistoryFilter, limit, offset int) ([]*models.CreditTransaction, error)
	// SumTransactions возвращает сумму всех операций журнала артиста.
	SumTransactions(ctx context.Context, artistID int) (int, error)
	// Credit начисляет кредиты через журнал.
	Credit(ctx context.Context, artistID, amount int, txType, description, referenceID string) (*models.CreditTransaction, error)
	// Debit списывает кредиты через журнал.
	Debit(ctx context.Context, artistID, amount int, txType, description, referenceID string) (*models.CreditTransaction, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует бизнес-логику чтения кредитов, включая кеширование баланса.
type Service struct {
	repo  CreditRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo CreditRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Balance возвращает текущий баланс артиста, используя кеш или хранилище.
// Кеш инвалидируется каждым изменением баланса, поэтому короткий TTL
// защищает только от пропущенной инвалидации.
func (s *Service) Balance(ctx context.Context, artistID int) (*models.CreditBalance, error) {
	var result *models.CreditBalance
	cacheKey := cache.BalanceKey(artistID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read balance cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	balance, err := s.repo.GetBalance(ctx, artistID)
	if err != nil {
		return nil, err
	}
	result = &models.CreditBalance{ArtistID: artistID, AvailableLeads: balance}

	if err := s.cache.Set(cacheKey, result, time.Minute); err != nil {
		s.log.Warn("failed to cache balance", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// ErrZeroAdjustment возвращается при попытке корректировки на ноль кредитов.
var ErrZeroAdjustment = errors.New("adjustment amount must be non-zero")

// Adjust выполняет ручную корректировку баланса админом: положительная сумма
// начисляет кредиты, отрицательная — списывает. Запись попадает в журнал
// с типом adjustment и ссылкой на админа.
func (s *Service) Adjust(ctx context.Context, artistID, amount int,
	reason string, adminID int) (*models.CreditTransaction, error) {
	if amount == 0 {
		return nil, ErrZeroAdjustment
	}

	referenceID := "ADMIN_" + strconv.Itoa(adminID)
	var tx *models.CreditTransaction
	var err error
	if amount > 0 {
		tx, err = s.repo.Credit(ctx, artistID, amount, models.TxAdjustment, reason, referenceID)
	} else {
		tx, err = s.repo.Debit(ctx, artistID, -amount, models.TxAdjustment, reason, referenceID)
	}
	if err != nil {
		return nil, err
	}

	cacheKey := cache.BalanceKey(artistID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate balance cache", slog.String("key", cacheKey), sl.Err(err))
	}
	s.log.Info("credits adjusted",
		slog.Int("artist_id", artistID),
		slog.Int("amount", amount),
		slog.Int("admin_id", adminID))
	return tx, nil
}

// History возвращает историю операций артиста с фильтрами и пагинацией.
func (s *Service) History(ctx context.Context, artistID int,
	filter models.HistoryFilter, limit, offset int) ([]*models.CreditTransaction, error) {
	return s.repo.ListTransactions(ctx, artistID, filter, limit, offset)
}

// Reconcile сверяет сумму журнала с текущим балансом артиста. Расхождение
// означает, что баланс менялся в обход журнала.
func (s *Service) Reconcile(ctx context.Context, artistID int) (balance, sum int, match bool, err error) {
	balance, err = s.repo.GetBalance(ctx, artistID)
	if err != nil {
		return 0, 0, false, err
	}
	sum, err = s.repo.SumTransactions(ctx, artistID)
	if err != nil {
		return 0, 0, false, err
	}
	if balance != sum {
		s.log.Error("ledger mismatch",
			slog.Int("artist_id", artistID),
			slog.Int("balance", balance),
			slog.Int("ledger_sum", sum))
	}
	return balance, sum, balance == sum, nil
}
