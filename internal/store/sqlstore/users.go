package sqlstore

import (
	"database/sql"
	"errors"

	"github.com/avolkov/ridepool/internal/models"
)

const userColumns = `id, email, display_name, password, photo_url, phone, role, rating, total_rides, bio,
	vehicle_make, vehicle_model, vehicle_year, vehicle_color, vehicle_plate, vehicle_seats, created_at`

func (s *SQLStore) CreateUser(user *models.User) error {
	v := vehicleColumns(user.Vehicle)
	query := s.rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Exec(query,
		user.ID, user.Email, user.DisplayName, user.Password, user.PhotoURL, user.Phone,
		string(user.Role), user.Rating, user.TotalRides, user.Bio,
		v.Make, v.Model, v.Year, v.Color, v.LicensePlate, v.Seats, user.CreatedAt)
	return err
}

func (s *SQLStore) GetUserByEmail(email string) (*models.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return s.scanUser(s.db.QueryRow(query, email))
}

func (s *SQLStore) GetUserByID(id string) (*models.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return s.scanUser(s.db.QueryRow(query, id))
}

// UpdateProfile overwrites the mutable profile fields. Display fields
// already copied onto rides, bookings and chats are left as they were.
func (s *SQLStore) UpdateProfile(user *models.User) error {
	v := vehicleColumns(user.Vehicle)
	query := s.rebind(`UPDATE users SET display_name = ?, photo_url = ?, phone = ?, role = ?, bio = ?,
		vehicle_make = ?, vehicle_model = ?, vehicle_year = ?, vehicle_color = ?, vehicle_plate = ?, vehicle_seats = ?
		WHERE id = ?`)
	res, err := s.db.Exec(query,
		user.DisplayName, user.PhotoURL, user.Phone, string(user.Role), user.Bio,
		v.Make, v.Model, v.Year, v.Color, v.LicensePlate, v.Seats, user.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var v models.Vehicle
	var role string
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.Password, &user.PhotoURL, &user.Phone,
		&role, &user.Rating, &user.TotalRides, &user.Bio,
		&v.Make, &v.Model, &v.Year, &v.Color, &v.LicensePlate, &v.Seats, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	if v != (models.Vehicle{}) {
		user.Vehicle = &v
	}
	return &user, nil
}

// vehicleColumns flattens an optional vehicle into its column values.
func vehicleColumns(v *models.Vehicle) models.Vehicle {
	if v == nil {
		return models.Vehicle{}
	}
	return *v
}
