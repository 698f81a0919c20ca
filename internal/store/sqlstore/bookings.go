package sqlstore

import (
	"github.com/avolkov/ridepool/internal/models"
)

const bookingColumns = `id, ride_id, rider_id, rider_name, rider_photo, seats_booked, total_price, status, chat_id, created_at`

func (s *SQLStore) HasBooking(rideID, riderID string) (bool, error) {
	var exists bool
	query := s.rebind(`SELECT EXISTS(SELECT 1 FROM bookings WHERE ride_id = ? AND rider_id = ?)`)
	err := s.db.QueryRow(query, rideID, riderID).Scan(&exists)
	return exists, err
}

// CreateBookingAndReserveSeat claims one seat and records the booking as
// a single transaction. The conditional decrement is the serialization
// point: two riders racing for the last seat cannot both pass it. A
// second booking by the same rider trips the (ride_id, rider_id) unique
// constraint even if the caller's duplicate pre-check raced.
func (s *SQLStore) CreateBookingAndReserveSeat(booking *models.Booking) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(s.rebind(`UPDATE rides SET available_seats = available_seats - 1 WHERE id = ? AND available_seats > 0`), booking.RideID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRow(s.rebind(`SELECT EXISTS(SELECT 1 FROM rides WHERE id = ?)`), booking.RideID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return models.ErrNotFound
		}
		return models.ErrRideFull
	}

	query := s.rebind(`INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = tx.Exec(query,
		booking.ID, booking.RideID, booking.RiderID, booking.RiderName, booking.RiderPhoto,
		booking.SeatsBooked, booking.TotalPrice, string(booking.Status), booking.ChatID, booking.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrAlreadyBooked
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(s.rebind(`INSERT INTO ride_passengers (ride_id, rider_id) VALUES (?, ?)`), booking.RideID, booking.RiderID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLStore) ListBookingsByRider(riderID string) ([]models.Booking, error) {
	query := s.rebind(`SELECT ` + bookingColumns + ` FROM bookings WHERE rider_id = ? ORDER BY created_at DESC`)
	return s.queryBookings(query, riderID)
}

func (s *SQLStore) ListBookingsByRide(rideID string) ([]models.Booking, error) {
	query := s.rebind(`SELECT ` + bookingColumns + ` FROM bookings WHERE ride_id = ? ORDER BY created_at ASC`)
	return s.queryBookings(query, rideID)
}

func (s *SQLStore) queryBookings(query string, arg string) ([]models.Booking, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.RideID, &b.RiderID, &b.RiderName, &b.RiderPhoto,
			&b.SeatsBooked, &b.TotalPrice, &status, &b.ChatID, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Status = models.BookingStatus(status)
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
