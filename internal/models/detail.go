package models

import "time"

// Category is the coarse disaster class derived from keyword matching.
type Category string

const (
	CategoryFire           Category = "FIRE"
	CategoryRescue         Category = "RESCUE"
	CategoryAlert          Category = "ALERT"
	CategoryMedicalSupport Category = "MEDICAL_SUPPORT"
	CategoryOther          Category = "OTHER"
)

// Status is the disaster lifecycle state parsed from the statement's
// trailing clause. StatusClosed is the fallback when no terminal phrase
// matches.
type Status string

const (
	StatusOpened           Status = "OPENED"
	StatusRescueComplete   Status = "RESCUE_COMPLETE"
	StatusNoExtinguishNeed Status = "NO_EXTINGUISH_NEEDED"
	StatusContained        Status = "CONTAINED"
	StatusExtinguished     Status = "EXTINGUISHED"
	StatusClosed           Status = "CLOSED"
)

// DisasterDetail holds the structured facts parsed from exactly one
// RawStatement. It is written once by the analyzer and never updated.
type DisasterDetail struct {
	StatementID    int64
	Category       Category
	CategoryDetail string
	OpenedAt       time.Time
	ClosedAt       *time.Time // nil when the statement states no close time
	Status         Status
	// Locality is set only when the disaster is outside the home
	// municipality; nil means the home municipality itself.
	Locality         *string
	AddressPrimary   string
	AddressSecondary *string
}
