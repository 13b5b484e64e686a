package models

import (
	"time"

	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// Booking is a paid reservation of a tour by a user.
type Booking struct {
	ID        int64     `json:"id"`
	TourID    int64     `json:"tour" validate:"required,gt=0"`
	UserID    int64     `json:"user" validate:"required,gt=0"`
	Price     float64   `json:"price" validate:"required,gt=0"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"createdAt"`

	TourName  string `json:"tourName,omitempty"`
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// NewBooking returns a booking that defaults to paid.
func NewBooking() *Booking {
	return &Booking{Paid: true}
}

// GetID returns the primary key.
func (b *Booking) GetID() int64 { return b.ID }

// BeforeSave clears the read-only expansion fields.
func (b *Booking) BeforeSave() {
	b.TourName, b.UserName, b.UserEmail = "", "", ""
}

// Validate checks the struct rules.
func (b *Booking) Validate() error {
	return utils.ValidateStruct(b)
}

// CheckoutSession is what the client needs to redirect to the payment page.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutCompleted is the part of a completed checkout used to record a booking.
type CheckoutCompleted struct {
	SessionID     string
	TourID        int64
	CustomerEmail string
	AmountTotal   int64
}
