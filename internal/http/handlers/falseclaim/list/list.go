// Package list реализует HTTP-обработчик списка жалоб для админа.
package list

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

// Handler обрабатывает запросы списка жалоб.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики жалоб
}

// Service описывает интерфейс бизнес-логики чтения жалоб.
type Service interface {
	List(ctx context.Context, status string, limit, offset int) ([]*models.FalseClaim, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список жалоб
// @Description Возвращает жалобы на ложные лиды с фильтром по статусу.
// @Tags FalseClaims
// @Produce  json
// @Param status query string false "Статус: pending, approved, rejected"
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список жалоб"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/false-claims [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.falseclaim.list"

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

	claims, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		log.Error("failed to list false claims", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list false claims"))
		return
	}

	log.Info("success to list false claims", slog.Int("count", len(claims)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"false_claims": claims,
		"count":        len(claims),
	}))
}
