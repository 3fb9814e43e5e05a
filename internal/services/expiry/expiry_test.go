package expiry

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

func (m *RepoMock) ListExpiryCandidates(ctx context.Context) ([]*models.ExpiryCandidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExpiryCandidate), args.Error(1)
}
func (m *RepoMock) ExpireArtistPlan(ctx context.Context, cand *models.ExpiryCandidate, expiryDate time.Time) (int, error) {
	args := m.Called(ctx, cand, expiryDate)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func datePtr(t time.Time) *time.Time { return &t }

func TestExpiryService_Sweep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	expired := &models.ExpiryCandidate{
		ArtistID:         1,
		PlanID:           2,
		PlanName:         "Gold",
		DurationDays:     30,
		AvailableLeads:   4,
		PlanPurchaseDate: datePtr(now.AddDate(0, 0, -31)),
	}
	active := &models.ExpiryCandidate{
		ArtistID:         2,
		PlanID:           2,
		PlanName:         "Gold",
		DurationDays:     30,
		PlanPurchaseDate: datePtr(now.AddDate(0, 0, -10)),
	}
	// админ продлил тариф вручную: дата покупки сброшена, тариф живёт
	// extended_days от даты продления
	retained := &models.ExpiryCandidate{
		ArtistID:         3,
		PlanID:           2,
		PlanName:         "Gold",
		DurationDays:     30,
		ExtendedDays:     10,
		RetainedPlanDate: datePtr(now.AddDate(0, 0, -5)),
	}
	retainedOverdue := &models.ExpiryCandidate{
		ArtistID:         6,
		PlanID:           2,
		PlanName:         "Gold",
		DurationDays:     30,
		ExtendedDays:     10,
		AvailableLeads:   2,
		RetainedPlanDate: datePtr(now.AddDate(0, 0, -11)),
	}
	noDates := &models.ExpiryCandidate{
		ArtistID:     4,
		PlanID:       2,
		DurationDays: 30,
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
	}{
		{
			name: "expires only overdue plans",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("ListExpiryCandidates", mock.Anything).
					Return([]*models.ExpiryCandidate{expired, active, retained, retainedOverdue, noDates}, nil).Once()
				r.On("ExpireArtistPlan", mock.Anything, expired, mock.Anything).
					Return(4, nil).Once()
				r.On("ExpireArtistPlan", mock.Anything, retainedOverdue, mock.Anything).
					Return(2, nil).Once()
				c.On("Invalidate", "balance:1").Return(nil).Once()
				c.On("Invalidate", "balance:6").Return(nil).Once()
			},
		},
		{
			name: "per artist failure does not stop the sweep",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				second := &models.ExpiryCandidate{
					ArtistID:         5,
					PlanID:           2,
					PlanName:         "Gold",
					DurationDays:     30,
					PlanPurchaseDate: datePtr(now.AddDate(0, 0, -45)),
				}
				r.On("ListExpiryCandidates", mock.Anything).
					Return([]*models.ExpiryCandidate{expired, second}, nil).Once()
				r.On("ExpireArtistPlan", mock.Anything, expired, mock.Anything).
					Return(0, errors.New("db error")).Once()
				r.On("ExpireArtistPlan", mock.Anything, second, mock.Anything).
					Return(0, nil).Once()
				c.On("Invalidate", "balance:5").Return(nil).Once()
			},
		},
		{
			name: "list error aborts sweep",
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("ListExpiryCandidates", mock.Anything).
					Return(nil, errors.New("db error")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, newNoopLogger())
			svc.now = func() time.Time { return now }

			tt.setupMocks(repo, cache)

			svc.Sweep(context.Background(), nil)

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestPlanExpiryDate(t *testing.T) {
	purchase := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	retained := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		cand   *models.ExpiryCandidate
		want   time.Time
		wantOK bool
	}{
		{
			name: "purchase date plus duration",
			cand: &models.ExpiryCandidate{
				DurationDays:     30,
				PlanPurchaseDate: &purchase,
			},
			want:   purchase.AddDate(0, 0, 30),
			wantOK: true,
		},
		{
			name: "retained plan ignores plan duration",
			cand: &models.ExpiryCandidate{
				DurationDays:     30,
				ExtendedDays:     5,
				RetainedPlanDate: &retained,
			},
			want:   retained.AddDate(0, 0, 5),
			wantOK: true,
		},
		{
			name: "purchase date takes precedence over retained",
			cand: &models.ExpiryCandidate{
				DurationDays:     30,
				PlanPurchaseDate: &purchase,
				RetainedPlanDate: &retained,
			},
			want:   purchase.AddDate(0, 0, 30),
			wantOK: true,
		},
		{
			name: "extended days push expiry out",
			cand: &models.ExpiryCandidate{
				DurationDays:     30,
				ExtendedDays:     15,
				PlanPurchaseDate: &purchase,
			},
			want:   purchase.AddDate(0, 0, 45),
			wantOK: true,
		},
		{
			name:   "no dates means never expires",
			cand:   &models.ExpiryCandidate{DurationDays: 30},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := planExpiryDate(tt.cand)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
