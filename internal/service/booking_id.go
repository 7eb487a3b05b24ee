package service

import (
	"math/rand/v2"

	"bookhook/internal/models"
)

const bookingIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// IDGenerator returns a new booking ID.
type IDGenerator func() string

// NewBookingID returns "BK-" followed by 7 random base-36 characters.
// IDs are not checked for uniqueness: collisions are possible, only unlikely.
func NewBookingID() string {
	b := make([]byte, models.BookingIDLength)
	for i := range b {
		b[i] = bookingIDAlphabet[rand.IntN(len(bookingIDAlphabet))]
	}
	return models.BookingIDPrefix + string(b)
}
