// Package book реализует HTTP-обработчик бронирования лида.
//
// Бронировать может только артист, предварительно забравший лид,
// и у лида может быть не более одного бронирования.
package book

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/wedmac/lead-marketplace/internal/http/middlewarectx"
	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на бронирование лида.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис бизнес-логики лидов
}

// Service описывает интерфейс бизнес-логики бронирования.
type Service interface {
	Book(ctx context.Context, leadID, artistID int) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Забронировать лид
// @Description Бронирует забранный лид за текущим артистом. У лида может быть только одно бронирование.
// @Tags Leads
// @Produce  json
// @Param id path int true "ID лида"
// @Success 200 {object} map[string]any "Лид забронирован"
// @Failure 402 {object} response.ErrorResponse "Недостаточно кредитов"
// @Failure 404 {object} response.ErrorResponse "Лид не найден"
// @Failure 409 {object} response.ErrorResponse "Лид не забран или уже забронирован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /leads/{id}/book [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.book"

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

	artistID, ok := r.Context().Value(middlewarectx.ArtistID).(int)
	if !ok || artistID == 0 {
		log.Error("artist id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	err = h.service.Book(r.Context(), leadID, artistID)
	switch {
	case errors.Is(err, repository.ErrLeadNotFound):
		log.Error("lead not found", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("lead not found"))
		return
	case errors.Is(err, repository.ErrNotClaimed):
		log.Error("lead not claimed by artist", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("claim the lead before booking"))
		return
	case errors.Is(err, repository.ErrAlreadyBooked):
		log.Error("lead already booked by artist", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("you have already booked this lead"))
		return
	case errors.Is(err, repository.ErrAlreadyBookedByOther):
		log.Error("lead booked by another artist", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("lead is already booked by another artist"))
		return
	case errors.Is(err, repository.ErrInsufficientCredits):
		log.Error("insufficient credits", slog.Int("artist_id", artistID))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.Error("insufficient credits"))
		return
	case err != nil:
		log.Error("failed to book lead", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not book lead"))
		return
	}

	log.Info("lead booked", slog.Int("lead_id", leadID), slog.Int("artist_id", artistID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"lead_id": leadID,
		"status":  "booked",
	}))
}
