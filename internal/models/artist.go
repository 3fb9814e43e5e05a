// Package models содержит доменные структуры маркетплейса: артисты,
// лиды, кредитный баланс, подписки и журналы операций.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Статусы профиля артиста.
const (
	ArtistStatusPending  = "pending"
	ArtistStatusApproved = "approved"
	ArtistStatusRejected = "rejected"
)

// Artist представляет профиль артиста на площадке.
// Поле AvailableLeads — текущий кредитный баланс (количество лидов,
// которые артист может забрать); инвариант AvailableLeads >= 0
// поддерживается блокировкой строки при каждом изменении.
type Artist struct {
	ID               int        // Уникальный идентификатор артиста
	Username         string     // Имя пользователя (уникальное)
	Email            string     // Электронная почта
	Phone            string     // Телефон для уведомлений
	PasswordHash     string     // Хэш пароля
	Role             string     // Роль: artist или admin
	Status           string     // Статус профиля: pending, approved, rejected
	IsActive         bool       // Флаг активности профиля
	AvailableLeads   int        // Кредитный баланс (доступные лиды)
	PlanVerified     bool       // Подтверждена ли покупка тарифа
	CurrentPlanID    *int       // Текущий тариф (nil, если тарифа нет)
	PlanPurchaseDate *time.Time // Дата покупки тарифа
	RetainedPlanDate *time.Time // Дата, с которой админ продлил тариф вручную
	ExtendedDays     int        // Дополнительные дни, выданные админом
	ReferralCode     string     // Собственный реферальный код артиста
	ReferredByCode   string     // Реферальный код, указанный при регистрации
	InternalNotes    string     // Служебные заметки админа
	CreatedAt        time.Time
}

// RegisterRequest используется для приёма данных регистрации из JSON-запроса.
type RegisterRequest struct {
	Username       string `json:"username" validate:"required,alphanum,min=3"` // Имя пользователя
	Email          string `json:"email" validate:"required,email"`             // Электронная почта
	Phone          string `json:"phone" validate:"required,numeric,len=10"`    // Телефон (10 цифр)
	Password       string `json:"password" validate:"required,min=8"`          // Пароль
	ReferredByCode string `json:"referred_by_code,omitempty"`                  // Реферальный код пригласившего (опционально)
}

// LoginRequest используется для приёма данных входа из JSON-запроса.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ModerationRequest используется админом для смены статуса профиля артиста.
type ModerationRequest struct {
	Status        string `json:"status" validate:"required,oneof=approved rejected"` // Новый статус
	InternalNotes string `json:"internal_notes,omitempty"`                           // Заметка админа
}
