package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/paymentgateway"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetArtist(ctx context.Context, id int) (*models.Artist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Artist), args.Error(1)
}
func (m *RepoMock) GetPlan(ctx context.Context, id int) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPlan), args.Error(1)
}
func (m *RepoMock) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionPlan), args.Error(1)
}
func (m *RepoMock) CreatePendingSubscription(ctx context.Context, artistID, planID int, orderID string) (int, error) {
	args := m.Called(ctx, artistID, planID, orderID)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ActivateSubscription(ctx context.Context, orderID string) (*models.Subscription, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) FindActiveSubscription(ctx context.Context, artistID, planID int) (*models.Subscription, error) {
	args := m.Called(ctx, artistID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateOrder(req paymentgateway.CreateOrderRequest) (*paymentgateway.CreateOrderResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.CreateOrderResponse), args.Error(1)
}
func (m *GatewayMock) VerifySignature(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSubscriptionService_Purchase(t *testing.T) {
	plan := &models.SubscriptionPlan{
		ID:           2,
		Name:         "Gold",
		Price:        4999.50,
		TotalLeads:   50,
		DurationDays: 90,
	}

	approved := &models.Artist{ID: 1, Status: models.ArtistStatusApproved}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, g *GatewayMock)
		wantErr    error
		wantAmount int
	}{
		{
			name: "success converts price to paise",
			setupMocks: func(r *RepoMock, g *GatewayMock) {
				r.On("GetArtist", mock.Anything, 1).Return(approved, nil).Once()
				r.On("GetPlan", mock.Anything, 2).Return(plan, nil).Once()
				r.On("FindActiveSubscription", mock.Anything, 1, 2).
					Return(nil, repository.ErrSubscriptionNotFound).Once()
				g.On("CreateOrder", mock.MatchedBy(func(req paymentgateway.CreateOrderRequest) bool {
					return req.Amount == 499950 && req.Currency == "INR" && req.Notes["plan"] == "Gold"
				})).Return(&paymentgateway.CreateOrderResponse{ID: "order_abc"}, nil).Once()
				r.On("CreatePendingSubscription", mock.Anything, 1, 2, "order_abc").
					Return(31, nil).Once()
			},
			wantAmount: 499950,
		},
		{
			name: "pending artist cannot purchase",
			setupMocks: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetArtist", mock.Anything, 1).
					Return(&models.Artist{ID: 1, Status: models.ArtistStatusPending}, nil).Once()
			},
			wantErr: ErrArtistNotApproved,
		},
		{
			name: "plan not found",
			setupMocks: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetArtist", mock.Anything, 1).Return(approved, nil).Once()
				r.On("GetPlan", mock.Anything, 2).
					Return(nil, repository.ErrPlanNotFound).Once()
			},
			wantErr: repository.ErrPlanNotFound,
		},
		{
			name: "plan already active",
			setupMocks: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetArtist", mock.Anything, 1).Return(approved, nil).Once()
				r.On("GetPlan", mock.Anything, 2).Return(plan, nil).Once()
				r.On("FindActiveSubscription", mock.Anything, 1, 2).
					Return(&models.Subscription{ID: 30, IsActive: true}, nil).Once()
			},
			wantErr: ErrPlanAlreadyActive,
		},
		{
			name: "gateway error",
			setupMocks: func(r *RepoMock, g *GatewayMock) {
				r.On("GetArtist", mock.Anything, 1).Return(approved, nil).Once()
				r.On("GetPlan", mock.Anything, 2).Return(plan, nil).Once()
				r.On("FindActiveSubscription", mock.Anything, 1, 2).
					Return(nil, repository.ErrSubscriptionNotFound).Once()
				g.On("CreateOrder", mock.Anything).
					Return(nil, errors.New("gateway unavailable")).Once()
			},
			wantErr: errors.New("gateway unavailable"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gateway := new(GatewayMock)
			cache := new(CacheMock)
			svc := New(repo, gateway, cache, "rzp_test_key", newNoopLogger())

			tt.setupMocks(repo, gateway)

			got, err := svc.Purchase(context.Background(), 1, 2)
			if tt.wantErr != nil {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "order_abc", got.OrderID)
				assert.Equal(t, tt.wantAmount, got.Amount)
				assert.Equal(t, "rzp_test_key", got.Key)
			}

			repo.AssertExpectations(t)
			gateway.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Verify(t *testing.T) {
	activated := &models.Subscription{
		ID:                  31,
		ArtistID:            1,
		OrderID:             "order_abc",
		PaymentStatus:       models.PaymentSuccess,
		IsActive:            true,
		TotalLeadsAllocated: 50,
	}
	req := models.VerifyPaymentRequest{
		OrderID:   "order_abc",
		PaymentID: "pay_xyz",
		Signature: "sig",
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, g *GatewayMock, c *CacheMock)
		wantErr    error
	}{
		{
			name: "success activation invalidates balance cache",
			setupMocks: func(r *RepoMock, g *GatewayMock, c *CacheMock) {
				g.On("VerifySignature", "order_abc", "pay_xyz", "sig").Return(true).Once()
				r.On("ActivateSubscription", mock.Anything, "order_abc").
					Return(activated, nil).Once()
				c.On("Invalidate", "balance:1").Return(nil).Once()
			},
		},
		{
			name: "invalid signature",
			setupMocks: func(_ *RepoMock, g *GatewayMock, _ *CacheMock) {
				g.On("VerifySignature", "order_abc", "pay_xyz", "sig").Return(false).Once()
			},
			wantErr: ErrInvalidSignature,
		},
		{
			name: "repeated activation rejected",
			setupMocks: func(r *RepoMock, g *GatewayMock, _ *CacheMock) {
				g.On("VerifySignature", "order_abc", "pay_xyz", "sig").Return(true).Once()
				r.On("ActivateSubscription", mock.Anything, "order_abc").
					Return(nil, repository.ErrAlreadyActivated).Once()
			},
			wantErr: repository.ErrAlreadyActivated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gateway := new(GatewayMock)
			cache := new(CacheMock)
			svc := New(repo, gateway, cache, "rzp_test_key", newNoopLogger())

			tt.setupMocks(repo, gateway, cache)

			got, err := svc.Verify(context.Background(), req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, activated, got)
			}

			repo.AssertExpectations(t)
			gateway.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}
