// Package artist содержит логику регистрации, входа и модерации артистов.
package artist

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/wedmac/lead-marketplace/internal/lib/jwt"
	"github.com/wedmac/lead-marketplace/internal/lib/password"
	"github.com/wedmac/lead-marketplace/internal/models"
)

// ArtistRepository описывает контракт для работы с артистами в базе данных.
type ArtistRepository interface {
	// RegisterArtist сохраняет нового артиста и возвращает его ID.
	RegisterArtist(ctx context.Context, artist models.Artist) (int, error)
	// GetArtist возвращает артиста по ID.
	GetArtist(ctx context.Context, id int) (*models.Artist, error)
	// GetArtistByUsername возвращает артиста по имени или ошибку, если не найден.
	GetArtistByUsername(ctx context.Context, username string) (*models.Artist, error)
	// ModerateArtist меняет статус профиля; при первом одобрении
	// начисляет реферальный бонус и возвращает признак начисления.
	ModerateArtist(ctx context.Context, artistID int, newStatus, notes string) (*models.Artist, bool, error)
	// ListActivityLogs возвращает журнал активности артиста с пагинацией.
	ListActivityLogs(ctx context.Context, artistID, limit, offset int) ([]*models.ActivityLog, error)
}

// Service отвечает за регистрацию, авторизацию и модерацию артистов.
type Service struct {
	artists  ArtistRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(artists ArtistRepository, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{artists: artists, jwtMaker: jwtMaker, log: log}
}

// Register создает нового артиста со статусом pending и собственным
// реферальным кодом. Кредиты за реферальный код начисляются пригласившему
// только после одобрения профиля админом.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (int, string, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return 0, "", err
	}
	referralCode := newReferralCode()
	artist := models.Artist{
		Username:       req.Username,
		Email:          req.Email,
		Phone:          req.Phone,
		PasswordHash:   hashed,
		Role:           "artist",
		Status:         models.ArtistStatusPending,
		IsActive:       true,
		ReferralCode:   referralCode,
		ReferredByCode: strings.TrimSpace(req.ReferredByCode),
	}
	id, err := s.artists.RegisterArtist(ctx, artist)
	if err != nil {
		return 0, "", err
	}
	s.log.Info("registered new artist", slog.Int("id", id))
	return id, referralCode, nil
}

// Login проверяет пароль артиста и генерирует JWT.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	artist, err := s.artists.GetArtistByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}
	if err := password.CompareHash(artist.PasswordHash, rawPassword); err != nil {
		return "", "", errors.New("invalid credentials")
	}
	if !artist.IsActive {
		return "", "", errors.New("account is deactivated")
	}
	token, err = s.jwtMaker.GenerateToken(artist.Username, artist.Role, artist.ID)
	if err != nil {
		return "", "", err
	}
	return token, artist.Role, nil
}

// Moderate меняет статус профиля артиста. Повторное одобрение отклоняется,
// реферальный бонус пригласившему начисляется не более одного раза.
func (s *Service) Moderate(ctx context.Context, artistID int, req models.ModerationRequest) (*models.Artist, error) {
	artist, rewarded, err := s.artists.ModerateArtist(ctx, artistID, req.Status, req.InternalNotes)
	if err != nil {
		return nil, err
	}
	s.log.Info("artist moderated",
		slog.Int("artist_id", artistID),
		slog.String("status", req.Status),
		slog.Bool("referral_rewarded", rewarded))
	return artist, nil
}

// Profile возвращает профиль артиста по ID.
func (s *Service) Profile(ctx context.Context, artistID int) (*models.Artist, error) {
	return s.artists.GetArtist(ctx, artistID)
}

// Activity возвращает журнал операций артиста с кредитами и лидами.
func (s *Service) Activity(ctx context.Context, artistID, limit, offset int) ([]*models.ActivityLog, error) {
	if _, err := s.artists.GetArtist(ctx, artistID); err != nil {
		return nil, err
	}
	return s.artists.ListActivityLogs(ctx, artistID, limit, offset)
}

func newReferralCode() string {
	return "WM" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
