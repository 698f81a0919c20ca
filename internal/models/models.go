package models

import "time"

type Role string

const (
	RoleDriver Role = "driver"
	RoleRider  Role = "rider"
	RoleBoth   Role = "both"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleRider, RoleBoth:
		return true
	}
	return false
}

type RideStatus string

const (
	RideUpcoming  RideStatus = "upcoming"
	RideCompleted RideStatus = "completed"
	RideCancelled RideStatus = "cancelled"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Vehicle describes the car a driver offers rides in.
type Vehicle struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         string `json:"year"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
	Seats        int    `json:"seats"`
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Password    string    `json:"-"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Role        Role      `json:"role"`
	Rating      float64   `json:"rating"`
	TotalRides  int       `json:"total_rides"`
	Bio         string    `json:"bio,omitempty"`
	Vehicle     *Vehicle  `json:"vehicle,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ride is a driver's posted trip. Driver display fields are copied from
// the profile at posting time and are not refreshed by later edits.
type Ride struct {
	ID             string     `json:"id"`
	DriverID       string     `json:"driver_id"`
	DriverName     string     `json:"driver_name"`
	DriverPhoto    string     `json:"driver_photo,omitempty"`
	DriverRating   float64    `json:"driver_rating"`
	From           string     `json:"from"`
	To             string     `json:"to"`
	DepartAt       time.Time  `json:"depart_at"`
	AvailableSeats int        `json:"available_seats"`
	PricePerSeat   float64    `json:"price_per_seat"`
	Vehicle        *Vehicle   `json:"vehicle,omitempty"`
	Description    string     `json:"description,omitempty"`
	Status         RideStatus `json:"status"`
	Passengers     []string   `json:"passengers"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Booking is a rider's claim on one seat of a ride. At most one exists
// per (ride, rider) pair.
type Booking struct {
	ID          string        `json:"id"`
	RideID      string        `json:"ride_id"`
	RiderID     string        `json:"rider_id"`
	RiderName   string        `json:"rider_name"`
	RiderPhoto  string        `json:"rider_photo,omitempty"`
	SeatsBooked int           `json:"seats_booked"`
	TotalPrice  float64       `json:"total_price"`
	Status      BookingStatus `json:"status"`
	ChatID      string        `json:"chat_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Participant holds the denormalized display fields for one chat member.
type Participant struct {
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

// Chat is a two-party conversation created when a rider books a ride.
// LastMessage/LastMessageTime are a cache for list rendering; the
// messages table is authoritative.
type Chat struct {
	ID              string                 `json:"id"`
	RideID          string                 `json:"ride_id,omitempty"`
	Participants    []string               `json:"participants"`
	Details         map[string]Participant `json:"participant_details"`
	LastMessage     string                 `json:"last_message,omitempty"`
	LastMessageTime time.Time              `json:"last_message_time"`
	CreatedAt       time.Time              `json:"created_at"`
}

type Message struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chat_id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	SenderPhoto string    `json:"sender_photo,omitempty"`
	Text        string    `json:"text"`
	SentAt      time.Time `json:"sent_at"`
	Read        bool      `json:"read"`
}
