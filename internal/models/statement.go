package models

import "time"

// Zone identifies which section of the bulletin page a statement came from.
type Zone string

const (
	ZoneCurrent Zone = "CURRENT"
	ZonePast    Zone = "PAST"
)

// NotifyState tracks the outbound notification lifecycle of a statement.
type NotifyState string

const (
	NotifyPending NotifyState = "PENDING"
	NotifySkipped NotifyState = "SKIPPED" // excluded from notification, e.g. backfilled imports
	NotifySent    NotifyState = "SENT"
)

// RawStatement is one disaster notice line as it appeared on the bulletin.
// The pair (Text, Zone) is unique; re-ingesting an identical line is a no-op.
type RawStatement struct {
	ID          int64
	Text        string
	RetrievedAt time.Time // when this system first saw the line, not when the disaster occurred
	Zone        Zone
	NotifyState NotifyState
}
