package repository

import "errors"

// Сигнальные ошибки хранилища. Обработчики сопоставляют их
// с HTTP-статусами через errors.Is.
var (
	ErrArtistNotFound       = errors.New("artist not found")
	ErrLeadNotFound         = errors.New("lead not found")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrFalseClaimNotFound   = errors.New("false claim not found")

	ErrAlreadyClaimed       = errors.New("lead already claimed by this artist")
	ErrCapacityReached      = errors.New("lead claim capacity reached")
	ErrNotClaimed           = errors.New("lead is not claimed by this artist")
	ErrAlreadyBooked        = errors.New("lead already booked by this artist")
	ErrAlreadyBookedByOther = errors.New("lead already booked by another artist")

	ErrInsufficientCredits = errors.New("insufficient lead credits")

	ErrAlreadyApproved  = errors.New("artist already approved")
	ErrAlreadyResolved  = errors.New("false claim already resolved")
	ErrMaxClaimsTooLow  = errors.New("max_claims below current claimed count")
	ErrAlreadyActivated = errors.New("subscription already activated")
)
