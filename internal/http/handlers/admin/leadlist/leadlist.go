// Package leadlist реализует HTTP-обработчик списка всех лидов для админа.
package leadlist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
)

// Handler обрабатывает запросы списка лидов.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики лидов
}

// Service описывает интерфейс бизнес-логики чтения лидов.
type Service interface {
	List(ctx context.Context, status string, limit, offset int) ([]*models.Lead, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список лидов
// @Description Возвращает все лиды со счётчиками claim и бронирований.
// @Tags Admin
// @Produce  json
// @Param status query string false "Статус: new, claimed, booked и др."
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список лидов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/leads [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.leadlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	status := r.URL.Query().Get("status")
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	leads, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		log.Error("failed to list leads", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list leads"))
		return
	}

	log.Info("success to list leads", slog.Int("count", len(leads)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"leads": leads,
		"count": len(leads),
	}))
}
