package store

import (
	"time"

	"github.com/avolkov/ridepool/internal/models"
)

// RideFilter narrows the upcoming-ride listing. From/To are
// case-insensitive substring matches; Date is an exact day in
// "2006-01-02" form. Empty fields are ignored.
type RideFilter struct {
	From string
	To   string
	Date string
}

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateProfile(user *models.User) error

	// Ride operations
	CreateRide(ride *models.Ride) error
	GetRide(id string) (*models.Ride, error)
	ListUpcomingRides(excludeDriverID string, filter RideFilter) ([]models.Ride, error)
	ListRidesByDriver(driverID string) ([]models.Ride, error)
	DeleteRideCascade(rideID string) error

	// Booking operations
	HasBooking(rideID, riderID string) (bool, error)
	CreateBookingAndReserveSeat(booking *models.Booking) error
	ListBookingsByRider(riderID string) ([]models.Booking, error)
	ListBookingsByRide(rideID string) ([]models.Booking, error)

	// Chat operations
	CreateChat(chat *models.Chat) error
	GetChat(id string) (*models.Chat, error)
	GetRideChatFor(rideID, userID string) (*models.Chat, error)
	IsParticipant(chatID, userID string) (bool, error)
	GetUserChats(userID string) ([]models.Chat, error)
	SaveMessage(msg *models.Message) error
	GetChatMessages(chatID string) ([]models.Message, error)
	LatestMessage(chatID string) (*models.Message, error)
	UpdateChatLastMessage(chatID, text string, at time.Time) error
}
