package models

import "time"

// Типы операций кредитного журнала.
const (
	TxPurchase    = "purchase"
	TxConsumption = "consumption"
	TxRefund      = "refund"
	TxAdjustment  = "adjustment"
	TxReferral    = "referral"
)

// CreditTransaction — неизменяемая запись кредитного журнала.
// Инвариант: CreditsAfter == CreditsBefore + Amount, а сумма Amount
// по всем записям артиста равна его текущему балансу.
type CreditTransaction struct {
	ID            int       // Уникальный идентификатор записи
	ArtistID      int       // Артист, чей баланс изменён
	PlanID        *int      // Тариф, если операция связана с покупкой
	Type          string    // Тип операции: purchase, consumption, refund, adjustment, referral
	CreditsBefore int       // Баланс до операции
	Amount        int       // Изменение баланса (со знаком)
	CreditsAfter  int       // Баланс после операции
	Description   string    // Человеко-читаемое описание
	ReferenceID   string    // Внешняя ссылка: id заказа, лида, реферала
	CreatedAt     time.Time
}

// CreditBalance — ответ на запрос текущего баланса артиста.
type CreditBalance struct {
	ArtistID       int `json:"artist_id"`
	AvailableLeads int `json:"available_leads"`
}

// AdjustCreditsRequest используется админом для ручной корректировки баланса.
// Положительная сумма начисляет кредиты, отрицательная — списывает.
type AdjustCreditsRequest struct {
	Amount int    `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// HistoryFilter — параметры фильтрации истории операций,
// передаваемые в слой доступа к данным.
type HistoryFilter struct {
	Type     *string    // Тип операции (nil — без фильтра)
	DateFrom *time.Time // Начало периода (nil — без ограничения)
	DateTo   *time.Time // Конец периода (nil — без ограничения)
}
