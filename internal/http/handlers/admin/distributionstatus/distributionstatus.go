// Package distributionstatus реализует HTTP-обработчик чтения активной
// стратегии распределения.
package distributionstatus

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
)

// Handler обрабатывает запросы активной стратегии.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики распределения
}

// Service описывает интерфейс бизнес-логики чтения стратегии.
type Service interface {
	Active(ctx context.Context) (models.Strategy, bool, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Активная стратегия распределения
// @Description Возвращает включённую стратегию автораспределения, если она есть.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Активная стратегия"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/distribution-rules [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.distributionstatus"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	strategy, active, err := h.service.Active(r.Context())
	if err != nil {
		log.Error("failed to read active strategy", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read active strategy"))
		return
	}

	log.Info("success to read active strategy",
		slog.String("strategy", string(strategy)), slog.Bool("active", active))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"strategy":  strategy,
		"is_active": active,
	}))
}
