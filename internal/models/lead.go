package models

import "time"

// Статусы лида по мере прохождения воронки.
const (
	LeadStatusNew         = "new"
	LeadStatusClaimed     = "claimed"
	LeadStatusBooked      = "booked"
	LeadStatusQualified   = "qualified"
	LeadStatusUnqualified = "unqualified"
	LeadStatusConverted   = "converted"
)

// Lead представляет заявку клиента, которую артисты могут забирать (claim)
// и бронировать (book). Поле MaxClaims ограничивает число артистов,
// одновременно удерживающих лид; инвариант TotalClaims <= MaxClaims
// поддерживается блокировкой строки лида.
type Lead struct {
	ID                int       // Уникальный идентификатор лида
	FirstName         string    // Имя клиента
	LastName          string    // Фамилия клиента
	Phone             string    // Телефон клиента
	Email             string    // Электронная почта клиента
	EventType         string    // Тип события: wedding, engagement, party, corporate, other
	Requirements      string    // Пожелания клиента
	BookingDate       time.Time // Желаемая дата услуги
	Source            string    // Источник: website, instagram, referral, other
	Status            string    // Статус лида
	AssignedTo        *int      // Артист, назначенный автоматическим распределением
	RequestedArtistID *int      // Артист, которого клиент запросил явно
	MaxClaims         int       // Максимальное число артистов, которые могут забрать лид
	TotalClaims       int       // Текущее число забравших артистов
	TotalBookings     int       // Текущее число бронирований
	IsDeleted         bool      // Мягкое удаление
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LeadClaim — строка участия артиста в лиде.
type LeadClaim struct {
	LeadID    int
	ArtistID  int
	ClaimedAt time.Time
}

// CreateLeadRequest используется для приёма публичной заявки из JSON-запроса.
// Дата приходит строкой в формате 02-01-2006 и парсится вручную.
type CreateLeadRequest struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name,omitempty"`
	Phone        string `json:"phone" validate:"required,numeric,len=10"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	EventType    string `json:"event_type" validate:"required,oneof=wedding engagement party corporate other"`
	Requirements string `json:"requirements,omitempty"`
	BookingDate  string `json:"booking_date" validate:"required"`
	Source       string `json:"source,omitempty" validate:"omitempty,oneof=website instagram referral other"`
}

// SetMaxClaimsRequest используется админом для изменения вместимости лида.
type SetMaxClaimsRequest struct {
	MaxClaims int `json:"max_claims" validate:"required,gt=0"`
}

// ClaimStats — сводка по вместимости лида для админских ручек.
type ClaimStats struct {
	LeadID         int `json:"lead_id"`
	MaxClaims      int `json:"max_claims"`
	ClaimedCount   int `json:"current_claimed_count"`
	AvailableSlots int `json:"available_slots"`
}
