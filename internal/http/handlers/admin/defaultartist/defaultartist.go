// Package defaultartist реализует HTTP-обработчик назначения запасного
// артиста, получающего лиды, когда стратегия не нашла кандидата.
package defaultartist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Request — структура входных данных для назначения запасного артиста.
type Request struct {
	ArtistID int `json:"artist_id" validate:"required,gt=0"`
}

// Handler обрабатывает HTTP-запросы назначения запасного артиста.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики распределения
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики назначения запасного артиста.
type Service interface {
	SetDefaultArtist(ctx context.Context, artistID int) error
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
// @Summary Назначить запасного артиста
// @Description Задает артиста, получающего лиды, когда стратегия не нашла кандидата.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Запасной артист"
// @Success 200 {object} map[string]any "Запасной артист назначен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Артист не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/distribution-rules/default-artist [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.defaultartist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	err := h.service.SetDefaultArtist(r.Context(), req.ArtistID)
	if errors.Is(err, repository.ErrArtistNotFound) {
		log.Error("artist not found", slog.Int("artist_id", req.ArtistID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("artist not found"))
		return
	}
	if err != nil {
		log.Error("failed to set default artist", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set default artist"))
		return
	}

	log.Info("default artist updated", slog.Int("artist_id", req.ArtistID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"default_artist_id": req.ArtistID,
	}))
}
