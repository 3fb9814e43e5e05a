// Package verify реализует HTTP-обработчик подтверждения оплаты тарифа.
//
// Проверяет подпись платёжного шлюза и активирует подписку. Активация
// идемпотентна: повторное подтверждение не начисляет кредиты второй раз.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
	subservice "github.com/wedmac/lead-marketplace/internal/services/subscription"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на подтверждение оплаты.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики подписок
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики подтверждения оплаты.
type Service interface {
	Verify(ctx context.Context, req models.VerifyPaymentRequest) (*models.Subscription, error)
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
// @Summary Подтвердить оплату
// @Description Проверяет подпись платежа и активирует подписку, начисляя кредиты тарифа.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.VerifyPaymentRequest true "Данные завершённого платежа"
// @Success 200 {object} map[string]any "Подписка активирована"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или подпись"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Заказ уже подтверждён"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /subscriptions/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.VerifyPaymentRequest
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

	sub, err := h.service.Verify(r.Context(), req)
	switch {
	case errors.Is(err, subservice.ErrInvalidSignature):
		log.Error("payment signature mismatch", slog.String("order_id", req.OrderID))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payment signature"))
		return
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		log.Error("subscription not found", slog.String("order_id", req.OrderID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("order not found"))
		return
	case errors.Is(err, repository.ErrAlreadyActivated):
		log.Error("subscription already activated", slog.String("order_id", req.OrderID))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("order is already confirmed"))
		return
	case err != nil:
		log.Error("failed to verify payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not verify payment"))
		return
	}

	log.Info("subscription activated",
		slog.Int("artist_id", sub.ArtistID),
		slog.String("order_id", sub.OrderID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription_id": sub.ID,
		"payment_status":  sub.PaymentStatus,
		"leads_allocated": sub.TotalLeadsAllocated,
		"start_date":      sub.StartDate,
		"end_date":        sub.EndDate,
	}))
}
