// Package approveartist реализует HTTP-обработчик модерации профиля артиста.
//
// При первом одобрении профиля пригласившему артисту начисляется
// реферальный бонус; повторное одобрение отклоняется.
package approveartist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы модерации артистов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики артистов
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики модерации.
type Service interface {
	Moderate(ctx context.Context, artistID int, req models.ModerationRequest) (*models.Artist, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Модерация артиста
// @Description Одобряет или отклоняет профиль артиста. При первом одобрении начисляется реферальный бонус пригласившему.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID артиста"
// @Param request body models.ModerationRequest true "Решение модерации"
// @Success 200 {object} map[string]any "Статус обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Артист не найден"
// @Failure 409 {object} response.ErrorResponse "Профиль уже одобрен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/artists/{id}/moderate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.approveartist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	artistID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	var req models.ModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	artist, err := h.service.Moderate(r.Context(), artistID, req)
	switch {
	case errors.Is(err, repository.ErrArtistNotFound):
		log.Error("artist not found", slog.Int("artist_id", artistID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("artist not found"))
		return
	case errors.Is(err, repository.ErrAlreadyApproved):
		log.Error("artist already approved", slog.Int("artist_id", artistID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("artist is already approved"))
		return
	case err != nil:
		log.Error("failed to moderate artist", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not moderate artist"))
		return
	}

	log.Info("artist moderated", slog.Int("artist_id", artistID), slog.String("status", artist.Status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"artist_id": artist.ID,
		"status":    artist.Status,
	}))
}
