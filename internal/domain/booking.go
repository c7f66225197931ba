package domain

import (
	"context"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// emailPattern matches a simple local@domain.tld shape.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Booking is a visitor's reservation for an event, identified by email.
// swagger:model Booking
type Booking struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBooking returns a Booking with a trimmed event ID and a trimmed, lowercased email.
// ID is typically set by the repository on create.
func NewBooking(eventID, email string, createdAt, updatedAt time.Time) *Booking {
	return &Booking{
		EventID:   strings.TrimSpace(eventID),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// Validate checks the event ID and email and returns a *ValidationError naming the failing fields.
func (b *Booking) Validate() error {
	err := validation.ValidateStruct(b,
		validation.Field(&b.EventID,
			validation.Required.Error("event ID is required"),
			validation.By(isUUID),
		),
		validation.Field(&b.Email,
			validation.Required.Error("email is required"),
			validation.Match(emailPattern).Error("invalid email address"),
		),
	)
	return asValidationError(err)
}

func isUUID(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_is_uuid", "event ID is not a valid identifier")
	}
	return nil
}

// BookingRepository defines storage operations for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// BookingService defines booking operations used by the HTTP layer.
type BookingService interface {
	// CreateBooking validates the input, confirms the event exists, and persists the booking.
	CreateBooking(ctx context.Context, eventID, email string) (*Booking, error)
	// CountBookings returns how many bookings reference the event.
	CountBookings(ctx context.Context, eventID string) (int, error)
}
