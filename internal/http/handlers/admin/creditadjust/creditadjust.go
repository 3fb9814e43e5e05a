// Package creditadjust реализует HTTP-обработчик ручной корректировки
// баланса артиста админом.
package creditadjust

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

	"github.com/wedmac/lead-marketplace/internal/http/middlewarectx"
	"github.com/wedmac/lead-marketplace/internal/http/response"
	"github.com/wedmac/lead-marketplace/internal/lib/sl"
	"github.com/wedmac/lead-marketplace/internal/models"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// Handler обрабатывает запросы корректировки баланса.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис бизнес-логики кредитов
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики корректировки баланса.
type Service interface {
	Adjust(ctx context.Context, artistID, amount int, reason string, adminID int) (*models.CreditTransaction, error)
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
// @Summary Корректировка баланса артиста
// @Description Начисляет или списывает кредиты вручную. Запись попадает в журнал с типом adjustment.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID артиста"
// @Param request body models.AdjustCreditsRequest true "Сумма со знаком и причина"
// @Success 200 {object} map[string]any "Запись журнала"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 402 {object} response.ErrorResponse "Недостаточно кредитов для списания"
// @Failure 404 {object} response.ErrorResponse "Артист не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /admin/artists/{id}/credits [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.creditadjust"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	artistID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	adminID, ok := r.Context().Value(middlewarectx.ArtistID).(int)
	if !ok || adminID == 0 {
		log.Error("admin id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.AdjustCreditsRequest
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

	tx, err := h.service.Adjust(r.Context(), artistID, req.Amount, req.Reason, adminID)
	switch {
	case errors.Is(err, repository.ErrArtistNotFound):
		log.Error("artist not found", slog.Int("artist_id", artistID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("artist not found"))
		return
	case errors.Is(err, repository.ErrInsufficientCredits):
		log.Error("insufficient credits for debit", slog.Int("artist_id", artistID))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.Error("insufficient credits"))
		return
	case err != nil:
		log.Error("failed to adjust credits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not adjust credits"))
		return
	}

	log.Info("credits adjusted",
		slog.Int("artist_id", artistID),
		slog.Int("amount", req.Amount),
		slog.Int("admin_id", adminID))
	render.JSON(w, r, response.StatusOKWithData(tx))
}
