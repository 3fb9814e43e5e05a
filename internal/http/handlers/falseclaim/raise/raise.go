// Package raise реализует HTTP-обработчик подачи жалобы на ложный лид.
//
// Жалоба принимается только на лид, который текущий артист действительно
// забирал. Кредит возвращается после одобрения жалобы админом.
package raise

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/wedmac/lead-marketplace/internal/http/middlewarectx"
	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы подачи жалобы.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики жалоб
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики подачи жалобы.
type Service interface {
	Raise(ctx context.Context, artistID int, req models.RaiseFalseClaimRequest) (*models.FalseClaim, error)
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
// @Summary Пожаловаться на ложный лид
// @Description Регистрирует жалобу на забранный лид. Кредит возвращается после одобрения админом.
// @Tags FalseClaims
// @Accept  json
// @Produce  json
// @Param request body models.RaiseFalseClaimRequest true "Данные жалобы"
// @Success 200 {object} map[string]any "Жалоба зарегистрирована"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Лид не был забран артистом"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /false-claims [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.falseclaim.raise"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.RaiseFalseClaimRequest
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

	artistID, ok := r.Context().Value(middlewarectx.ArtistID).(int)
	if !ok || artistID == 0 {
		log.Error("artist id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	claim, err := h.service.Raise(r.Context(), artistID, req)
	if errors.Is(err, repository.ErrNotClaimed) {
		log.Error("lead not claimed by artist", slog.Int("lead_id", req.LeadID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("you have not claimed this lead"))
		return
	}
	if err != nil {
		log.Error("failed to raise false claim", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not raise false claim"))
		return
	}

	log.Info("false claim raised", slog.Int("id", claim.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"false_claim_id": claim.ID,
		"status":         claim.Status,
	}))
}
