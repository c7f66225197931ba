package postgres

import (
	"context"

	"devevents/internal/domain"
)

type bookingRepository struct {
	conn Connector
}

// NewBookingRepository returns a domain.BookingRepository implemented with Postgres.
func NewBookingRepository(conn Connector) domain.BookingRepository {
	return &bookingRepository{conn: conn}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO bookings (event_id, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return db.QueryRowContext(ctx, query, b.EventID, b.Email, b.CreatedAt, b.UpdatedAt).Scan(&b.ID)
}

func (r *bookingRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	db, err := r.conn.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE event_id = $1`, eventID).Scan(&n)
	if isInvalidID(err) {
		return 0, nil
	}
	return n, err
}
