// Package history реализует HTTP-обработчик истории кредитных операций
// текущего артиста с фильтрами по типу и периоду.
package history

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/wedmac/lead-marketplace/internal/http/middlewarectx"
	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
)

// Handler обрабатывает запросы истории операций.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики кредитов
}

// Service описывает интерфейс бизнес-логики чтения истории.
type Service interface {
	History(ctx context.Context, artistID int, filter models.HistoryFilter, limit, offset int) ([]*models.CreditTransaction, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История операций
// @Description Возвращает историю кредитных операций артиста. Фильтры: type, date_from, date_to (02-01-2006).
// @Tags Credits
// @Produce  json
// @Param type query string false "Тип операции"
// @Param date_from query string false "Начало периода"
// @Param date_to query string false "Конец периода"
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "История операций"
// @Failure 400 {object} response.ErrorResponse "Некорректный фильтр"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /credits/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credit.history"

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

	var filter models.HistoryFilter
	if v := r.URL.Query().Get("type"); v != "" {
		filter.Type = &v
	}
	if v := r.URL.Query().Get("date_from"); v != "" {
		t, err := time.Parse("02-01-2006", v)
		if err != nil {
			log.Error("invalid date_from", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid date_from, expected 02-01-2006"))
			return
		}
		filter.DateFrom = &t
	}
	if v := r.URL.Query().Get("date_to"); v != "" {
		t, err := time.Parse("02-01-2006", v)
		if err != nil {
			log.Error("invalid date_to", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid date_to, expected 02-01-2006"))
			return
		}
		// Конец периода включительно.
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.DateTo = &end
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	transactions, err := h.service.History(r.Context(), artistID, filter, limit, offset)
	if err != nil {
		log.Error("failed to read history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read history"))
		return
	}

	log.Info("success to read history", slog.Int("count", len(transactions)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	}))
}
