// Package maxclaims реализует HTTP-обработчик изменения вместимости лида.
//
// Новый лимит не может быть меньше числа уже сделанных claim.
package maxclaims

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

	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы изменения вместимости лида.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики лидов
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики изменения вместимости.
type Service interface {
	SetMaxClaims(ctx context.Context, leadID, maxClaims int) (*models.ClaimStats, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить вместимость лида
// @Description Меняет max_claims одного лида. Лимит не может быть ниже текущего числа claim.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID лида"
// @Param request body models.SetMaxClaimsRequest true "Новый лимит"
// @Success 200 {object} map[string]any "Лимит обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Лид не найден"
// @Failure 409 {object} response.ErrorResponse "Лимит ниже текущего числа claim"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/leads/{id}/max-claims [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.maxclaims"

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

	var req models.SetMaxClaimsRequest
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

	stats, err := h.service.SetMaxClaims(r.Context(), leadID, req.MaxClaims)
	switch {
	case errors.Is(err, repository.ErrLeadNotFound):
		log.Error("lead not found", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("lead not found"))
		return
	case errors.Is(err, repository.ErrMaxClaimsTooLow):
		log.Error("max claims below current claims", slog.Int("lead_id", leadID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("max claims is below the current claim count"))
		return
	case err != nil:
		log.Error("failed to set max claims", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set max claims"))
		return
	}

	log.Info("max claims updated", slog.Int("lead_id", leadID), slog.Int("max_claims", req.MaxClaims))
	render.JSON(w, r, response.StatusOKWithData(stats))
}
