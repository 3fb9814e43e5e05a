// Package profile реализует HTTP-обработчик чтения профиля текущего артиста.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/wedmac/lead-marketplace/internal/http/middlewarectx"
	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает запросы профиля.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики артистов
}

// Service описывает интерфейс бизнес-логики чтения профиля.
type Service interface {
	Profile(ctx context.Context, artistID int) (*models.Artist, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль артиста
// @Description Возвращает профиль текущего артиста: статус, тариф, баланс.
// @Tags Artists
// @Produce  json
// @Success 200 {object} map[string]any "Профиль артиста"
// @Failure 404 {object} response.ErrorResponse "Артист не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.artist.profile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	artistID, ok := r.Context().Value(middlewarectx.ArtistID).(int)
	if !ok || artistID == 0 {
		log.Error("artist id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	artist, err := h.service.Profile(r.Context(), artistID)
	switch {
	case errors.Is(err, repository.ErrArtistNotFound):
		log.Error("artist not found", slog.Int("artist_id", artistID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("artist not found"))
		return
	case err != nil:
		log.Error("failed to read profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read profile"))
		return
	}

	// Хэш пароля наружу не отдаём.
	artist.PasswordHash = ""

	log.Info("success to read profile", slog.Int("artist_id", artistID))
	render.JSON(w, r, response.StatusOKWithData(artist))
}
