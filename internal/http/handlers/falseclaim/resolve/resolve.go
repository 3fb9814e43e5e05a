// Package resolve реализует HTTP-обработчик разрешения жалобы админом.
//
// При одобрении артисту возвращается один кредит через журнал; повторное
// разрешение той же жалобы отклоняется.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/streadway/amqp"

	"github.com/wedmac/lead-marketplace/internal/http/middlewarectx"
	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы разрешения жалоб.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики жалоб
	channel  *amqp.Channel       // Канал брокера для уведомлений
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики разрешения жалобы.
type Service interface {
	Resolve(ctx context.Context, channel *amqp.Channel, claimID int,
		resolvedBy string, req models.ResolveFalseClaimRequest) (*models.FalseClaim, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, channel *amqp.Channel) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		channel:  channel,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Разрешить жалобу
// @Description Одобряет или отклоняет жалобу. При одобрении артисту возвращается один кредит.
// @Tags FalseClaims
// @Accept  json
// @Produce  json
// @Param id path int true "ID жалобы"
// @Param request body models.ResolveFalseClaimRequest true "Решение админа"
// @Success 200 {object} map[string]any "Жалоба разрешена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Жалоба не найдена"
// @Failure 409 {object} response.ErrorResponse "Жалоба уже разрешена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/false-claims/{id}/resolve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.falseclaim.resolve"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claimID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	var req models.ResolveFalseClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	username, _ := r.Context().Value(middlewarectx.User).(string)

	claim, err := h.service.Resolve(r.Context(), h.channel, claimID, username, req)
	switch {
	case errors.Is(err, repository.ErrFalseClaimNotFound):
		log.Error("false claim not found", slog.Int("id", claimID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("false claim not found"))
		return
	case errors.Is(err, repository.ErrAlreadyResolved):
		log.Error("false claim already resolved", slog.Int("id", claimID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("false claim is already resolved"))
		return
	case err != nil:
		log.Error("failed to resolve false claim", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not resolve false claim"))
		return
	}

	log.Info("false claim resolved", slog.Int("id", claimID), slog.String("status", claim.Status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"false_claim_id": claim.ID,
		"status":         claim.Status,
	}))
}
