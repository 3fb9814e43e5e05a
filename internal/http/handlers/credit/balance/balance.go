// Package balance реализует HTTP-обработчик чтения кредитного баланса
// текущего артиста.
package balance

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/wedmac/lead-marketplace/internal/http/middlewarectx"
	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
)

// Handler обрабатывает запросы баланса.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики кредитов
}

// Service описывает интерфейс бизнес-логики чтения баланса.
type Service interface {
	Balance(ctx context.Context, artistID int) (*models.CreditBalance, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Баланс кредитов
// @Description Возвращает текущий кредитный баланс артиста.
// @Tags Credits
// @Produce  json
// @Success 200 {object} map[string]any "Текущий баланс"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /credits/balance [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credit.balance"

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

	balance, err := h.service.Balance(r.Context(), artistID)
	if err != nil {
		log.Error("failed to read balance", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read balance"))
		return
	}

	log.Info("success to read balance", slog.Int("artist_id", artistID))
	render.JSON(w, r, response.StatusOKWithData(balance))
}
