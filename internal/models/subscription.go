package models

import "time"

// Статусы оплаты подписки.
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// SubscriptionPlan — неизменяемая запись каталога тарифов.
type SubscriptionPlan struct {
	ID           int     // Уникальный идентификатор тарифа
	Name         string  // Название тарифа
	Price        float64 // Цена в рупиях
	TotalLeads   int     // Количество лидов, начисляемых при покупке
	DurationDays int     // Срок действия тарифа в днях
}

// Subscription — покупка тарифа артистом. У артиста может быть несколько
// подписок за всё время, но не более одной активной с успешной оплатой.
type Subscription struct {
	ID                  int        // Уникальный идентификатор подписки
	ArtistID            int        // Покупатель
	PlanID              int        // Купленный тариф
	OrderID             string     // Идентификатор заказа платёжного шлюза
	PaymentStatus       string     // pending, success, failed
	IsActive            bool       // Активна ли подписка
	StartDate           *time.Time // Дата активации (nil до оплаты)
	EndDate             *time.Time // Дата окончания действия
	TotalLeadsAllocated int        // Сколько лидов начислено при активации
	CreatedAt           time.Time
}

// VerifyPaymentRequest используется для приёма подтверждения оплаты из JSON-запроса.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// PurchaseResponse — данные созданного заказа для оплаты на стороне клиента.
type PurchaseResponse struct {
	OrderID  string  `json:"razorpay_order_id"`
	Amount   int     `json:"amount"` // Сумма в пайсах
	Currency string  `json:"currency"`
	Key      string  `json:"key"`
	Plan     string  `json:"plan"`
	Price    float64 `json:"price"`
}
