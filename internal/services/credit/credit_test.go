package credit

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
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetBalance(ctx context.Context, artistID int) (int, error) {
	args := m.Called(ctx, artistID)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListTransactions(ctx context.Context, artistID int,
	filter models.HistoryFilter, limit, offset int) ([]*models.CreditTransaction, error) {
	args := m.Called(ctx, artistID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CreditTransaction), args.Error(1)
}
func (m *RepoMock) SumTransactions(ctx context.Context, artistID int) (int, error) {
	args := m.Called(ctx, artistID)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) Credit(ctx context.Context, artistID, amount int,
	txType, description, referenceID string) (*models.CreditTransaction, error) {
	args := m.Called(ctx, artistID, amount, txType, description, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditTransaction), args.Error(1)
}
func (m *RepoMock) Debit(ctx context.Context, artistID, amount int,
	txType, description, referenceID string) (*models.CreditTransaction, error) {
	args := m.Called(ctx, artistID, amount, txType, description, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditTransaction), args.Error(1)
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

func TestCreditService_Balance(t *testing.T) {
	cached := &models.CreditBalance{ArtistID: 1, AvailableLeads: 7}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		want       int
		wantErr    bool
	}{
		{
			name: "cache hit",
			setupMocks: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", "balance:1", mock.Anything).Return(true, nil).Run(func(args mock.Arguments) {
					ptr := args.Get(1).(**models.CreditBalance)
					*ptr = cached
				}).Once()
			},
			want: 7,
		},
		{
			name: "cache miss then repo",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "balance:1", mock.Anything).Return(false, nil).Once()
				r.On("GetBalance", mock.Anything, 1).Return(4, nil).Once()
				c.On("Set", "balance:1", mock.Anything, time.Minute).Return(nil).Once()
			},
			want: 4,
		},
		{
			name: "cache error falls through to repo",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "balance:1", mock.Anything).
					Return(false, errors.New("redis down")).Once()
				r.On("GetBalance", mock.Anything, 1).Return(2, nil).Once()
				c.On("Set", "balance:1", mock.Anything, time.Minute).Return(nil).Once()
			},
			want: 2,
		},
		{
			name: "repo error",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "balance:1", mock.Anything).Return(false, nil).Once()
				r.On("GetBalance", mock.Anything, 1).Return(0, errors.New("db error")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, newNoopLogger())

			tt.setupMocks(repo, cache)

			got, err := svc.Balance(context.Background(), 1)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got.AvailableLeads)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestCreditService_Adjust(t *testing.T) {
	entry := &models.CreditTransaction{ID: 10, ArtistID: 1, Type: models.TxAdjustment, Amount: 5}

	tests := []struct {
		name       string
		amount     int
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name:   "positive amount credits",
			amount: 5,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("Credit", mock.Anything, 1, 5, models.TxAdjustment, "manual topup", "ADMIN_9").
					Return(entry, nil).Once()
				c.On("Invalidate", "balance:1").Return(nil).Once()
			},
		},
		{
			name:   "negative amount debits",
			amount: -2,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("Debit", mock.Anything, 1, 2, models.TxAdjustment, "manual topup", "ADMIN_9").
					Return(entry, nil).Once()
				c.On("Invalidate", "balance:1").Return(nil).Once()
			},
		},
		{
			name:       "zero amount rejected",
			amount:     0,
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    ErrZeroAdjustment,
		},
		{
			name:   "repo error skips cache invalidation",
			amount: 5,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("Credit", mock.Anything, 1, 5, models.TxAdjustment, "manual topup", "ADMIN_9").
					Return(nil, errors.New("db error")).Once()
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, newNoopLogger())

			tt.setupMocks(repo, cache)

			got, err := svc.Adjust(context.Background(), 1, tt.amount, "manual topup", 9)
			if tt.wantErr != nil {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, entry, got)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestCreditService_Reconcile(t *testing.T) {
	tests := []struct {
		name      string
		balance   int
		sum       int
		wantMatch bool
	}{
		{name: "ledger matches balance", balance: 5, sum: 5, wantMatch: true},
		{name: "ledger mismatch", balance: 5, sum: 3, wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, newNoopLogger())

			repo.On("GetBalance", mock.Anything, 1).Return(tt.balance, nil).Once()
			repo.On("SumTransactions", mock.Anything, 1).Return(tt.sum, nil).Once()

			balance, sum, match, err := svc.Reconcile(context.Background(), 1)
			assert.NoError(t, err)
			assert.Equal(t, tt.balance, balance)
			assert.Equal(t, tt.sum, sum)
			assert.Equal(t, tt.wantMatch, match)

			repo.AssertExpectations(t)
		})
	}
}
