package models

import "time"

// Статусы жалобы на ложный лид.
const (
	FalseClaimPending  = "pending"
	FalseClaimApproved = "approved"
	FalseClaimRejected = "rejected"
)

// FalseClaim — жалоба артиста на ложный лид. При одобрении админом
// артисту возвращается один кредит через журнал (тип refund).
type FalseClaim struct {
	ID         int
	LeadID     int
	ArtistID   int
	Reason     string     // Обоснование жалобы
	Status     string     // pending, approved, rejected
	AdminNote  string     // Комментарий админа при разрешении
	ResolvedBy string     // Имя пользователя админа, разрешившего жалобу
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// RaiseFalseClaimRequest используется артистом для подачи жалобы.
type RaiseFalseClaimRequest struct {
	LeadID int    `json:"lead_id" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,min=10"`
}

// ResolveFalseClaimRequest используется админом для разрешения жалобы.
type ResolveFalseClaimRequest struct {
	Status    string `json:"status" validate:"required,oneof=approved rejected"`
	AdminNote string `json:"admin_note,omitempty"`
}
