package models

import "time"

// Типы записей журнала активности артиста.
const (
	ActivityClaim      = "claim"
	ActivityBook       = "book"
	ActivityAutoAssign = "auto_assign"
	ActivityExpiry     = "expiry"
	ActivityRefund     = "refund"
)

// ActivityLog — запись журнала активности. Пишется один раз и не изменяется.
type ActivityLog struct {
	ID           int
	ArtistID     int
	LeadID       *int              // Лид, к которому относится активность (nil для expiry)
	ActivityType string            // claim, book, auto_assign, expiry, refund
	LeadsBefore  int               // Баланс до операции
	LeadsAfter   int               // Баланс после операции
	Details      map[string]string // Дополнительные атрибуты, сериализуются в JSONB
	CreatedAt    time.Time
}

// ExpiredPlanLog — снимок тарифа на момент истечения. Пишется один раз.
type ExpiredPlanLog struct {
	ID                   int
	ArtistID             int
	PlanID               int
	PlanPurchaseDate     *time.Time
	PlanExpiryDate       time.Time
	AvailableLeadsBefore int
	PlanDetails          map[string]string // Снимок полей тарифа
	CreatedAt            time.Time
}
