// Package create реализует HTTP-обработчик приёма публичных заявок.
//
// Заявка приходит без аутентификации с сайта или из соцсетей. После
// сохранения лид сразу пытается попасть к артисту через активную
// стратегию распределения; неудача назначения не мешает приёму заявки.
package create

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

// Handler обрабатывает HTTP-запросы на создание лидов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики лидов
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики создания лида.
type Service interface {
	Create(ctx context.Context, req models.CreateLeadRequest) (int, *models.Lead, error)
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
// @Summary Создать заявку
// @Description Принимает публичную заявку клиента и создает лид. Дата в формате 02-01-2006.
// @Tags Leads
// @Accept  json
// @Produce  json
// @Param request body models.CreateLeadRequest true "Данные заявки"
// @Success 200 {object} map[string]any "Заявка принята"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /leads [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	id, lead, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create lead", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create lead"))
		return
	}

	log.Info("lead created", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"lead_id": id,
		"status":  lead.Status,
	}))
}
