package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"devevents/internal/domain"
	"devevents/internal/monitoring"
)

type bookingService struct {
	bookingRepo    domain.BookingRepository
	eventRepo      domain.EventRepository
	emailService   domain.EmailService
	baseURL        string
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewBookingService returns the BookingService. emailService may be nil, in which case
// no confirmation is sent. baseURL prefixes the event link in the confirmation email.
func NewBookingService(
	bookingRepo domain.BookingRepository,
	eventRepo domain.EventRepository,
	emailService domain.EmailService,
	baseURL string,
	logger *slog.Logger,
	timeout time.Duration,
) domain.BookingService {
	return &bookingService{
		bookingRepo:    bookingRepo,
		eventRepo:      eventRepo,
		emailService:   emailService,
		baseURL:        strings.TrimRight(baseURL, "/"),
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, eventID, email string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now().UTC()
	booking := domain.NewBooking(eventID, email, now, now)
	if err := booking.Validate(); err != nil {
		monitoring.ObserveBooking("invalid")
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, booking.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			monitoring.ObserveBooking("missing_event")
			return nil, &domain.ReferenceError{EventID: booking.EventID}
		}
		monitoring.ObserveBooking("unverifiable")
		s.logger.Error("booking: event reference check failed", "event_id", booking.EventID, "error", err)
		return nil, &domain.ReferenceError{EventID: booking.EventID, Err: err}
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		monitoring.ObserveBooking("error")
		return nil, fmt.Errorf("create booking: %w", err)
	}
	monitoring.ObserveBooking("created")

	s.sendConfirmation(ctx, booking, event)
	return booking, nil
}

func (s *bookingService) CountBookings(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.bookingRepo.CountByEventID(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}

// sendConfirmation never fails the booking; mail errors are only logged.
func (s *bookingService) sendConfirmation(ctx context.Context, booking *domain.Booking, event *domain.Event) {
	if s.emailService == nil {
		return
	}
	data := &domain.BookingConfirmationEmailData{
		Email:      booking.Email,
		EventTitle: event.Title,
		EventDate:  event.Date,
		EventTime:  event.Time,
		Venue:      event.Venue,
		Location:   event.Location,
		EventURL:   s.baseURL + "/events/" + event.Slug,
	}
	if err := s.emailService.SendBookingConfirmation(ctx, data); err != nil {
		s.logger.Warn("booking confirmation email failed", "booking_id", booking.ID, "error", err)
	}
}
