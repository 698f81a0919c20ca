package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avolkov/ridepool/internal/models"
	"github.com/avolkov/ridepool/internal/store"
)

const rideColumns = `id, driver_id, driver_name, driver_photo, driver_rating, origin, destination, depart_at,
	available_seats, price_per_seat, vehicle_make, vehicle_model, vehicle_year, vehicle_color, vehicle_plate,
	vehicle_seats, description, status, created_at`

func (s *SQLStore) CreateRide(ride *models.Ride) error {
	v := vehicleColumns(ride.Vehicle)
	query := s.rebind(`INSERT INTO rides (` + rideColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Exec(query,
		ride.ID, ride.DriverID, ride.DriverName, ride.DriverPhoto, ride.DriverRating,
		ride.From, ride.To, ride.DepartAt, ride.AvailableSeats, ride.PricePerSeat,
		v.Make, v.Model, v.Year, v.Color, v.LicensePlate, v.Seats,
		ride.Description, string(ride.Status), ride.CreatedAt)
	return err
}

func (s *SQLStore) GetRide(id string) (*models.Ride, error) {
	query := s.rebind(`SELECT ` + rideColumns + ` FROM rides WHERE id = ?`)
	rows, err := s.db.Query(query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, models.ErrNotFound
	}
	ride, err := scanRide(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()

	ride.Passengers, err = s.ridePassengers(id)
	return ride, err
}

// ListUpcomingRides returns bookable postings by other drivers. SQL
// narrows status, ownership and seats; the substring and day filters
// run here, keeping their case-insensitive semantics identical across
// both drivers.
func (s *SQLStore) ListUpcomingRides(excludeDriverID string, filter store.RideFilter) ([]models.Ride, error) {
	query := s.rebind(`SELECT ` + rideColumns + ` FROM rides
		WHERE status = ? AND driver_id <> ? AND available_seats > 0
		ORDER BY depart_at ASC`)
	rows, err := s.db.Query(query, string(models.RideUpcoming), excludeDriverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []models.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		if !matchesFilter(ride, filter) {
			continue
		}
		rides = append(rides, *ride)
	}
	return rides, rows.Err()
}

func matchesFilter(ride *models.Ride, filter store.RideFilter) bool {
	if filter.From != "" && !strings.Contains(strings.ToLower(ride.From), strings.ToLower(filter.From)) {
		return false
	}
	if filter.To != "" && !strings.Contains(strings.ToLower(ride.To), strings.ToLower(filter.To)) {
		return false
	}
	if filter.Date != "" && ride.DepartAt.Format("2006-01-02") != filter.Date {
		return false
	}
	return true
}

func (s *SQLStore) ListRidesByDriver(driverID string) ([]models.Ride, error) {
	query := s.rebind(`SELECT ` + rideColumns + ` FROM rides WHERE driver_id = ? ORDER BY depart_at ASC`)
	rows, err := s.db.Query(query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []models.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, *ride)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range rides {
		rides[i].Passengers, err = s.ridePassengers(rides[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return rides, nil
}

// DeleteRideCascade removes the ride with its bookings, passenger links
// and chats (messages and participant rows included). Sub-deletes are
// best-effort: a failure is reported but does not stop the remaining
// deletes, so a partial cascade can leave stragglers behind.
func (s *SQLStore) DeleteRideCascade(rideID string) error {
	var errs []error

	chatIDs, err := s.chatIDsByRide(rideID)
	if err != nil {
		errs = append(errs, fmt.Errorf("list chats: %w", err))
	}
	for _, chatID := range chatIDs {
		if err := s.deleteChat(chatID); err != nil {
			errs = append(errs, fmt.Errorf("delete chat %s: %w", chatID, err))
		}
	}

	if _, err := s.db.Exec(s.rebind(`DELETE FROM bookings WHERE ride_id = ?`), rideID); err != nil {
		errs = append(errs, fmt.Errorf("delete bookings: %w", err))
	}
	if _, err := s.db.Exec(s.rebind(`DELETE FROM ride_passengers WHERE ride_id = ?`), rideID); err != nil {
		errs = append(errs, fmt.Errorf("delete passengers: %w", err))
	}
	if _, err := s.db.Exec(s.rebind(`DELETE FROM rides WHERE id = ?`), rideID); err != nil {
		errs = append(errs, fmt.Errorf("delete ride: %w", err))
	}

	return errors.Join(errs...)
}

func (s *SQLStore) chatIDsByRide(rideID string) ([]string, error) {
	rows, err := s.db.Query(s.rebind(`SELECT id FROM chats WHERE ride_id = ?`), rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) ridePassengers(rideID string) ([]string, error) {
	rows, err := s.db.Query(s.rebind(`SELECT rider_id FROM ride_passengers WHERE ride_id = ?`), rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanRide(rows *sql.Rows) (*models.Ride, error) {
	var ride models.Ride
	var v models.Vehicle
	var status string
	err := rows.Scan(&ride.ID, &ride.DriverID, &ride.DriverName, &ride.DriverPhoto, &ride.DriverRating,
		&ride.From, &ride.To, &ride.DepartAt, &ride.AvailableSeats, &ride.PricePerSeat,
		&v.Make, &v.Model, &v.Year, &v.Color, &v.LicensePlate, &v.Seats,
		&ride.Description, &status, &ride.CreatedAt)
	if err != nil {
		return nil, err
	}
	ride.Status = models.RideStatus(status)
	if v != (models.Vehicle{}) {
		ride.Vehicle = &v
	}
	return &ride, nil
}
