// Package subscription содержит логику покупки тарифов: создание заказа
// в платёжном шлюзе, проверку подписи оплаты и активацию подписки.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/wedmac/lead-marketplace/internal/cache"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/paymentgateway"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// ErrInvalidSignature возвращается при неверной подписи платежа.
var ErrInvalidSignature = errors.New("invalid payment signature")

// ErrPlanAlreadyActive возвращается при попытке повторно купить тариф,
// который у артиста уже активен.
var ErrPlanAlreadyActive = errors.New("plan already active for this artist")

// ErrArtistNotApproved возвращается при попытке покупки тарифа артистом,
// чей профиль ещё не одобрен админом.
var ErrArtistNotApproved = errors.New("artist profile is not approved")

// SubscriptionRepository определяет методы хранилища для работы с подписками.
type SubscriptionRepository interface {
	// GetArtist возвращает артиста по ID.
	GetArtist(ctx context.Context, id int) (*models.Artist, error)
	// GetPlan возвращает тариф по ID.
	GetPlan(ctx context.Context, id int) (*models.SubscriptionPlan, error)
	// ListPlans возвращает каталог тарифов.
	ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error)
	// CreatePendingSubscription сохраняет неоплаченную подписку.
	CreatePendingSubscription(ctx context.Context, artistID, planID int, orderID string) (int, error)
	// ActivateSubscription активирует подписку по заказу и начисляет
	// кредиты тарифа через журнал. Повторная активация отклоняется.
	ActivateSubscription(ctx context.Context, orderID string) (*models.Subscription, error)
	// FindActiveSubscription возвращает активную оплаченную подписку
	// артиста на тариф, либо ErrSubscriptionNotFound.
	FindActiveSubscription(ctx context.Context, artistID, planID int) (*models.Subscription, error)
}

// PaymentGateway описывает клиент платёжного шлюза.
type PaymentGateway interface {
	// CreateOrder создаёт заказ на оплату.
	CreateOrder(req paymentgateway.CreateOrderRequest) (*paymentgateway.CreateOrderResponse, error)
	// VerifySignature проверяет подпись завершённого платежа.
	VerifySignature(orderID, paymentID, signature string) bool
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует покупку и активацию тарифов.
type Service struct {
	repo    SubscriptionRepository
	gateway PaymentGateway
	cache   Cache
	keyID   string
	log     *slog.Logger
}

// New создает новый экземпляр Service. keyID — публичный ключ шлюза,
// который клиент использует для оплаты.
func New(repo SubscriptionRepository, gateway PaymentGateway, cache Cache, keyID string, log *slog.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, cache: cache, keyID: keyID, log: log}
}

// Plans возвращает каталог тарифов.
func (s *Service) Plans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	return s.repo.ListPlans(ctx)
}

// Purchase создаёт заказ в платёжном шлюзе и неоплаченную подписку.
// Тарифы доступны только одобренным артистам. Кредиты не начисляются
// до подтверждения оплаты.
func (s *Service) Purchase(ctx context.Context, artistID, planID int) (*models.PurchaseResponse, error) {
	artist, err := s.repo.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}
	if artist.Status != models.ArtistStatusApproved {
		return nil, ErrArtistNotApproved
	}

	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.FindActiveSubscription(ctx, artistID, planID)
	if err == nil {
		return nil, ErrPlanAlreadyActive
	}
	if !errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, err
	}

	// Шлюз принимает сумму в пайсах.
	amount := int(math.Round(plan.Price * 100))
	order, err := s.gateway.CreateOrder(paymentgateway.CreateOrderRequest{
		Amount:   amount,
		Currency: "INR",
		Notes: map[string]string{
			"plan": plan.Name,
		},
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.CreatePendingSubscription(ctx, artistID, planID, order.ID); err != nil {
		return nil, err
	}
	s.log.Info("created pending subscription",
		slog.Int("artist_id", artistID),
		slog.Int("plan_id", planID),
		slog.String("order_id", order.ID))

	return &models.PurchaseResponse{
		OrderID:  order.ID,
		Amount:   amount,
		Currency: "INR",
		Key:      s.keyID,
		Plan:     plan.Name,
		Price:    plan.Price,
	}, nil
}

// Verify проверяет подпись оплаты и активирует подписку. Активация
// идемпотентна: повторное подтверждение того же заказа не начисляет
// кредиты второй раз.
func (s *Service) Verify(ctx context.Context, req models.VerifyPaymentRequest) (*models.Subscription, error) {
	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.log.Warn("payment signature mismatch", slog.String("order_id", req.OrderID))
		return nil, ErrInvalidSignature
	}

	sub, err := s.repo.ActivateSubscription(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	s.log.Info("subscription activated",
		slog.Int("artist_id", sub.ArtistID),
		slog.String("order_id", sub.OrderID),
		slog.Int("leads_allocated", sub.TotalLeadsAllocated))

	if err := s.cache.Invalidate(cache.BalanceKey(sub.ArtistID)); err != nil {
		s.log.Warn("failed to invalidate balance cache", sl.Err(err))
	}
	return sub, nil
}
