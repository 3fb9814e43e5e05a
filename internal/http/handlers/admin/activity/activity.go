// Package activity реализует HTTP-обработчик журнала активности артиста.
package activity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает запросы журнала активности.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики артистов
}

// Service описывает интерфейс бизнес-логики чтения журнала активности.
type Service interface {
	Activity(ctx context.Context, artistID, limit, offset int) ([]*models.ActivityLog, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Журнал активности артиста
// @Description Возвращает операции артиста с кредитами и лидами по убыванию даты.
// @Tags Admin
// @Produce  json
// @Param id path int true "ID артиста"
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Журнал активности"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Артист не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/artists/{id}/activity [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.activity"

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

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	logs, err := h.service.Activity(r.Context(), artistID, limit, offset)
	switch {
	case errors.Is(err, repository.ErrArtistNotFound):
		log.Error("artist not found", slog.Int("artist_id", artistID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("artist not found"))
		return
	case err != nil:
		log.Error("failed to list activity logs", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list activity logs"))
		return
	}

	log.Info("success to list activity logs",
		slog.Int("artist_id", artistID),
		slog.Int("count", len(logs)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"activity": logs,
		"count":    len(logs),
	}))
}
