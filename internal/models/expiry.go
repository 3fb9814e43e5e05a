package models

import "time"

// ExpiryCandidate — артист с подтверждённым тарифом, проверяемый
// периодической зачисткой на предмет истечения срока действия.
type ExpiryCandidate struct {
	ArtistID         int
	ArtistName       string
	Phone            string
	PlanID           int
	PlanName         string
	PlanPrice        float64
	PlanTotalLeads   int
	DurationDays     int
	AvailableLeads   int
	PlanPurchaseDate *time.Time
	RetainedPlanDate *time.Time
	ExtendedDays     int
}

// ExpiryNotice — сообщение об экспирации тарифа, публикуемое в брокер.
type ExpiryNotice struct {
	ArtistID       int       `json:"artist_id"`
	ArtistName     string    `json:"artist_name"`
	Phone          string    `json:"phone"`
	PlanName       string    `json:"plan_name"`
	ExpiredAt      time.Time `json:"expired_at"`
	LeadsForfeited int       `json:"leads_forfeited"`
}
