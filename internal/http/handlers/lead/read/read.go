// Package read реализует HTTP-обработчик получения лида по ID.
package read

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

// Handler обрабатывает запросы на получение лида по уникальному идентификатору.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики лидов
}

// Service описывает интерфейс бизнес-логики чтения лида.
type Service interface {
	Get(ctx context.Context, leadID int) (*models.Lead, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить лид
// @Description Возвращает лид по ID.
// @Tags Leads
// @Produce  json
// @Param id path int true "ID лида"
// @Success 200 {object} map[string]any "Данные лида"
// @Failure 404 {object} response.ErrorResponse "Лид не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /leads/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	lead, err := h.service.Get(r.Context(), id)
	if errors.Is(err, repository.ErrLeadNotFound) {
		log.Error("lead not found", slog.Int("lead_id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("lead not found"))
		return
	}
	if err != nil {
		log.Error("failed to read lead", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read lead"))
		return
	}

	log.Info("success to read lead", slog.Int("lead_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"lead": lead,
	}))
}
