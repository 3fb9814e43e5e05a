// Package distributionrule реализует HTTP-обработчик переключения
// стратегии автоматического распределения лидов.
//
// Активной может быть не более одной стратегии: включение новой
// выключает остальные.
package distributionrule

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

// Handler обрабатывает HTTP-запросы переключения стратегии.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики распределения
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики управления стратегиями.
type Service interface {
	SetRule(ctx context.Context, req models.DistributionRuleRequest) (models.Strategy, error)
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
// @Summary Переключить стратегию распределения
// @Description Включает или выключает стратегию. Активной может быть не более одной стратегии.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DistributionRuleRequest true "Стратегия и состояние"
// @Success 200 {object} map[string]any "Стратегия обновлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или стратегия"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/distribution-rules [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.distributionrule"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DistributionRuleRequest
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

	strategy, err := h.service.SetRule(r.Context(), req)
	if err != nil {
		log.Error("failed to set distribution rule", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set distribution rule"))
		return
	}

	log.Info("distribution rule updated",
		slog.String("strategy", string(strategy)),
		slog.Bool("is_active", req.IsActive))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"strategy":  strategy,
		"is_active": req.IsActive,
	}))
}
