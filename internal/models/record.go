package models

import "time"

// CreatedAtLayout matches JavaScript's Date.toISOString output.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

const (
	RecordKindBooking      = "booking"
	RecordKindCancellation = "cancellation"

	ActionCancel = "CANCEL"
)

type Domain string

const (
	DomainBus     Domain = "bus"
	DomainMovie   Domain = "movie"
	DomainMuseum  Domain = "museum"

	// DomainUnknown completes the record schema's domain enum for sheet consumers.
	// The classifier never emits it: unmapped intents take the fallback reply and forward nothing.
	DomainUnknown Domain = "unknown"
)

// Record is anything the service forwards to the sheet store.
type Record interface {
	RecordKind() string
	ID() string
}

type Passenger struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// BookingRecord is built once per request and never mutated after classification.
// Details always carries every field of the domain; missing values are nil.
type BookingRecord struct {
	BookingID string         `json:"bookingId"`
	CreatedAt string         `json:"createdAt"`
	Domain    Domain         `json:"domain"`
	Details   map[string]any `json:"details"`
	Passenger Passenger      `json:"passenger"`
	Raw       string         `json:"raw"`
}

func (b *BookingRecord) RecordKind() string { return RecordKindBooking }
func (b *BookingRecord) ID() string         { return b.BookingID }

type CancellationRecord struct {
	Action    string `json:"action"`
	BookingID string `json:"bookingId"`
	CreatedAt string `json:"createdAt"`
	Raw       string `json:"raw"`
}

func (c *CancellationRecord) RecordKind() string { return RecordKindCancellation }
func (c *CancellationRecord) ID() string         { return c.BookingID }

// FormatCreatedAt renders t the way records carry timestamps.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}
