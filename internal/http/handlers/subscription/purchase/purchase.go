// Package purchase реализует HTTP-обработчик покупки тарифа.
//
// Создаёт заказ в платёжном шлюзе и неоплаченную подписку. Кредиты
// начисляются только после подтверждения оплаты обработчиком verify.
package purchase

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
	subservice "github.com/wedmac/lead-marketplace/internal/services/subscription"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Request — структура входных данных для покупки тарифа.
type Request struct {
	PlanID int `json:"plan_id" validate:"required,gt=0"`
}

// Handler обрабатывает HTTP-запросы на покупку тарифа.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики подписок
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики покупки.
type Service interface {
	Purchase(ctx context.Context, artistID, planID int) (*models.PurchaseResponse, error)
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
// @Summary Купить тариф
// @Description Создает заказ в платёжном шлюзе и неоплаченную подписку. Возвращает данные для оплаты.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body Request true "Выбранный тариф"
// @Success 200 {object} map[string]any "Заказ создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Профиль не одобрен"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 409 {object} response.ErrorResponse "Тариф уже активен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /subscriptions/purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.purchase"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	artistID, ok := r.Context().Value(middlewarectx.ArtistID).(int)
	if !ok || artistID == 0 {
		log.Error("artist id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Purchase(r.Context(), artistID, req.PlanID)
	if errors.Is(err, subservice.ErrArtistNotApproved) {
		log.Error("artist is not approved", slog.Int("artist_id", artistID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("artist profile is not approved"))
		return
	}
	if errors.Is(err, repository.ErrPlanNotFound) {
		log.Error("plan not found", slog.Int("plan_id", req.PlanID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("plan not found"))
		return
	}
	if errors.Is(err, subservice.ErrPlanAlreadyActive) {
		log.Error("plan already active",
			slog.Int("artist_id", artistID), slog.Int("plan_id", req.PlanID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("plan is already active"))
		return
	}
	if err != nil {
		log.Error("failed to purchase plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not purchase plan"))
		return
	}

	log.Info("pending subscription created",
		slog.Int("artist_id", artistID),
		slog.String("order_id", result.OrderID))
	render.JSON(w, r, response.StatusOKWithData(result))
}
