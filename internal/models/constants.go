package models

// Replies returned to the conversational platform.
const (
	ReplyBookingConfirmed      = "✅ Booking confirmed. ID: %s"
	ReplyCancellationRequested = "✅ Cancellation requested for %s"
	ReplyFallback              = "I help with buses, movies and museums bookings. Try 'Book a bus from Hyderabad to Bangalore'."
	ReplyMissingPassenger      = "Please provide passenger name and phone to complete the booking."
	ReplyApology               = "Sorry — something went wrong on the server."
	ReplyThrottled             = "Too many requests right now. Please try again in a moment."
)

const (
	BookingIDPrefix = "BK-"
	BookingIDLength = 7

	// DefaultPort is used when neither config nor PORT set one.
	DefaultPort = 10000

	// DefaultForwardTimeout bounds a single call to the sheet store, in seconds.
	DefaultForwardTimeout = 15

	// MaxResponseBody caps how much of the sheet store's reply is kept.
	MaxResponseBody = 1 << 20
)

// Webhook reply outcomes, used as metric labels.
const (
	OutcomeBooked           = "booked"
	OutcomeCancelled        = "cancelled"
	OutcomeFallback         = "fallback"
	OutcomeMissingPassenger = "missing_passenger"
	OutcomeError            = "error"
	OutcomeThrottled        = "throttled"
)
