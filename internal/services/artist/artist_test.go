package artist

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wedmac/lead-marketplace/internal/lib/jwt"
	"github.com/wedmac/lead-marketplace/internal/lib/password"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RegisterArtist(ctx context.Context, artist models.Artist) (int, error) {
	args := m.Called(ctx, artist)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetArtist(ctx context.Context, id int) (*models.Artist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Artist), args.Error(1)
}
func (m *RepoMock) GetArtistByUsername(ctx context.Context, username string) (*models.Artist, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Artist), args.Error(1)
}
func (m *RepoMock) ModerateArtist(ctx context.Context, artistID int, newStatus, notes string) (*models.Artist, bool, error) {
	args := m.Called(ctx, artistID, newStatus, notes)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Artist), args.Bool(1), args.Error(2)
}
func (m *RepoMock) ListActivityLogs(ctx context.Context, artistID, limit, offset int) ([]*models.ActivityLog, error) {
	args := m.Called(ctx, artistID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActivityLog), args.Error(1)
}

type JWTMakerMock struct{ mock.Mock }

func (m *JWTMakerMock) GenerateToken(username, role string, artistID int) (string, error) {
	args := m.Called(username, role, artistID)
	return args.String(0), args.Error(1)
}
func (m *JWTMakerMock) ParseToken(tokenStr string) (*jwt.CustomClaims, error) {
	args := m.Called(tokenStr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.CustomClaims), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestArtistService_Register(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, new(JWTMakerMock), newNoopLogger())

	repo.On("RegisterArtist", mock.Anything, mock.MatchedBy(func(a models.Artist) bool {
		return a.Username == "priya" &&
			a.Role == "artist" &&
			a.Status == models.ArtistStatusPending &&
			a.IsActive &&
			a.PasswordHash != "secretpass" &&
			strings.HasPrefix(a.ReferralCode, "WM")
	})).Return(1, nil).Once()

	id, code, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "priya",
		Email:    "priya@example.com",
		Phone:    "9876543210",
		Password: "secretpass",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.True(t, strings.HasPrefix(code, "WM"))
	assert.Len(t, code, 10)

	repo.AssertExpectations(t)
}

func TestArtistService_Login(t *testing.T) {
	hash, err := password.GetHash("secretpass")
	require.NoError(t, err)

	artist := &models.Artist{
		ID:           1,
		Username:     "priya",
		PasswordHash: hash,
		Role:         "artist",
		IsActive:     true,
	}
	deactivated := &models.Artist{
		ID:           2,
		Username:     "riya",
		PasswordHash: hash,
		Role:         "artist",
		IsActive:     false,
	}

	tests := []struct {
		name       string
		username   string
		password   string
		setupMocks func(r *RepoMock, j *JWTMakerMock)
		wantToken  string
		wantErrMsg string
	}{
		{
			name:     "success login",
			username: "priya",
			password: "secretpass",
			setupMocks: func(r *RepoMock, j *JWTMakerMock) {
				r.On("GetArtistByUsername", mock.Anything, "priya").Return(artist, nil).Once()
				j.On("GenerateToken", "priya", "artist", 1).Return("jwt-token", nil).Once()
			},
			wantToken: "jwt-token",
		},
		{
			name:     "wrong password",
			username: "priya",
			password: "wrongpass",
			setupMocks: func(r *RepoMock, _ *JWTMakerMock) {
				r.On("GetArtistByUsername", mock.Anything, "priya").Return(artist, nil).Once()
			},
			wantErrMsg: "invalid credentials",
		},
		{
			name:     "deactivated account",
			username: "riya",
			password: "secretpass",
			setupMocks: func(r *RepoMock, _ *JWTMakerMock) {
				r.On("GetArtistByUsername", mock.Anything, "riya").Return(deactivated, nil).Once()
			},
			wantErrMsg: "account is deactivated",
		},
		{
			name:     "unknown username",
			username: "ghost",
			password: "secretpass",
			setupMocks: func(r *RepoMock, _ *JWTMakerMock) {
				r.On("GetArtistByUsername", mock.Anything, "ghost").
					Return(nil, repository.ErrArtistNotFound).Once()
			},
			wantErrMsg: "artist not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			jwtMaker := new(JWTMakerMock)
			svc := New(repo, jwtMaker, newNoopLogger())

			tt.setupMocks(repo, jwtMaker)

			token, role, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, "artist", role)
			}

			repo.AssertExpectations(t)
			jwtMaker.AssertExpectations(t)
		})
	}
}

func TestArtistService_Moderate(t *testing.T) {
	approved := &models.Artist{ID: 1, Status: models.ArtistStatusApproved}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "success approve",
			setupMocks: func(r *RepoMock) {
				r.On("ModerateArtist", mock.Anything, 1, "approved", "ok").
					Return(approved, true, nil).Once()
			},
		},
		{
			name: "repeated approval rejected",
			setupMocks: func(r *RepoMock) {
				r.On("ModerateArtist", mock.Anything, 1, "approved", "ok").
					Return(nil, false, repository.ErrAlreadyApproved).Once()
			},
			wantErr: repository.ErrAlreadyApproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := New(repo, new(JWTMakerMock), newNoopLogger())

			tt.setupMocks(repo)

			got, err := svc.Moderate(context.Background(), 1, models.ModerationRequest{
				Status:        "approved",
				InternalNotes: "ok",
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, approved, got)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestArtistService_Activity(t *testing.T) {
	logs := []*models.ActivityLog{
		{ID: 2, ArtistID: 1, ActivityType: models.ActivityClaim, LeadsBefore: 3, LeadsAfter: 2},
		{ID: 1, ArtistID: 1, ActivityType: models.ActivityBook, LeadsBefore: 4, LeadsAfter: 3},
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantErr    error
		want       []*models.ActivityLog
	}{
		{
			name: "success",
			setupMocks: func(r *RepoMock) {
				r.On("GetArtist", mock.Anything, 1).
					Return(&models.Artist{ID: 1}, nil).Once()
				r.On("ListActivityLogs", mock.Anything, 1, 20, 0).
					Return(logs, nil).Once()
			},
			want: logs,
		},
		{
			name: "unknown artist",
			setupMocks: func(r *RepoMock) {
				r.On("GetArtist", mock.Anything, 1).
					Return(nil, repository.ErrArtistNotFound).Once()
			},
			wantErr: repository.ErrArtistNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := New(repo, new(JWTMakerMock), newNoopLogger())

			tt.setupMocks(repo)

			got, err := svc.Activity(context.Background(), 1, 20, 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			repo.AssertExpectations(t)
		})
	}
}
