// Package claimstats реализует HTTP-обработчик сводки вместимости лида.
package claimstats

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

// Handler обрабатывает запросы сводки вместимости лида.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики лидов
}

// Service описывает интерфейс бизнес-логики чтения вместимости.
type Service interface {
	Stats(ctx context.Context, leadID int) (*models.ClaimStats, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка вместимости лида
// @Description Возвращает max_claims, число claim и свободные слоты лида.
// @Tags Admin
// @Produce  json
// @Param id path int true "ID лида"
// @Success 200 {object} map[string]any "Сводка вместимости"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Лид не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/leads/{id}/max-claims [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.claimstats"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	leadID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	stats, err := h.service.Stats(r.Context(), leadID)
	switch {
	case errors.Is(err, repository.ErrLeadNotFound):
		log.Error("lead not found", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("lead not found"))
		return
	case err != nil:
		log.Error("failed to get claim stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get claim stats"))
		return
	}

	log.Info("success to get claim stats", slog.Int("lead_id", leadID))
	render.JSON(w, r, response.StatusOKWithData(stats))
}
