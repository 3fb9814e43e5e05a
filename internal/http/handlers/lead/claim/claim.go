// Package claim реализует HTTP-обработчик взятия лида артистом.
//
// Списывает один кредит и добавляет артиста к лиду. Конкурирующие
// запросы сериализуются на уровне хранилища, поэтому лимит max_claims
// не превышается даже при одновременных попытках.
package claim

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
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на взятие лида.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис бизнес-логики лидов
}

// Service описывает интерфейс бизнес-логики взятия лида.
type Service interface {
	Claim(ctx context.Context, leadID, artistID int) (int, *models.ClaimStats, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Забрать лид
// @Description Забирает лид для текущего артиста, списывая один кредит. Возвращает порядковый номер claim.
// @Tags Leads
// @Produce  json
// @Param id path int true "ID лида"
// @Success 200 {object} map[string]any "Лид забран"
// @Failure 402 {object} response.ErrorResponse "Недостаточно кредитов"
// @Failure 404 {object} response.ErrorResponse "Лид не найден"
// @Failure 409 {object} response.ErrorResponse "Лид уже забран или лимит исчерпан"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /leads/{id}/claim [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.claim"

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

	claimCount, stats, err := h.service.Claim(r.Context(), leadID, artistID)
	switch {
	case errors.Is(err, repository.ErrLeadNotFound):
		log.Error("lead not found", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("lead not found"))
		return
	case errors.Is(err, repository.ErrAlreadyClaimed):
		log.Error("lead already claimed by artist", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("you have already claimed this lead"))
		return
	case errors.Is(err, repository.ErrCapacityReached):
		log.Error("lead claim limit reached", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("lead claim limit reached"))
		return
	case errors.Is(err, repository.ErrInsufficientCredits):
		log.Error("insufficient credits", slog.Int("artist_id", artistID))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.Error("insufficient credits"))
		return
	case err != nil:
		log.Error("failed to claim lead", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not claim lead"))
		return
	}

	log.Info("lead claimed", slog.Int("lead_id", leadID), slog.Int("claim_count", claimCount))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"lead_id":         leadID,
		"claim_count":     claimCount,
		"max_claims":      stats.MaxClaims,
		"available_slots": stats.AvailableSlots,
	}))
}
