// Package health проверяет готовность сервиса и базы данных.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает запросы проверки состояния сервиса.
type Handler struct {
	log *slog.Logger
	db  *repository.Storage
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, db *repository.Storage) *Handler {
	return &Handler{log: log, db: db}
}

// ServeHTTP обрабатывает HTTP-запрос проверки состояния.
// @Summary Проверка состояния сервиса
// @Description Проверяет доступность базы данных
// @Tags health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.ErrorResponse
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := repository.CheckDatabaseReady(h.db); err != nil {
		log.Error("database is not ready", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database unavailable"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "healthy",
	}))
}
