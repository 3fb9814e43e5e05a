// Package bulkmaxclaims реализует HTTP-обработчик массового изменения
// вместимости лидов.
//
// Лиды, у которых текущее число claim превышает новый лимит, не меняются
// и возвращаются отдельным списком для ручного разбора.
package bulkmaxclaims

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
)

// Handler обрабатывает HTTP-запросы массового изменения вместимости.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики лидов
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики массового изменения вместимости.
type Service interface {
	BulkSetMaxClaims(ctx context.Context, maxClaims int) (int, []models.ClaimStats, error)
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
// @Summary Массово изменить вместимость
// @Description Меняет max_claims всех лидов. Лиды с превышением нового лимита возвращаются отдельным списком.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.SetMaxClaimsRequest true "Новый лимит"
// @Success 200 {object} map[string]any "Результат обновления"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/leads/max-claims [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.bulkmaxclaims"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	updated, problematic, err := h.service.BulkSetMaxClaims(r.Context(), req.MaxClaims)
	if err != nil {
		log.Error("failed to bulk set max claims", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not bulk set max claims"))
		return
	}

	log.Info("bulk max claims updated",
		slog.Int("max_claims", req.MaxClaims),
		slog.Int("updated", updated))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated_count":     updated,
		"problematic_leads": problematic,
	}))
}
