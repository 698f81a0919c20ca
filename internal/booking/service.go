// Package booking implements the ride booking flow: the one operation
// that touches rides, bookings and chats together and has to stay
// consistent under concurrent bookers.
package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/ridepool/internal/metrics"
	"github.com/avolkov/ridepool/internal/models"
	"github.com/avolkov/ridepool/internal/store"
)

// SeededLastMessage is the system string a freshly provisioned chat
// shows before anyone has typed.
const SeededLastMessage = "Ride booked - start chatting!"

// Notifier receives booking events for connected clients. The WebSocket
// hub implements it; tests pass nil or a stub.
type Notifier interface {
	NotifyUser(userID string, event string, payload any)
}

type Service struct {
	Store    store.Store
	Notifier Notifier
}

func NewService(s store.Store, n Notifier) *Service {
	return &Service{Store: s, Notifier: n}
}

// BookRide books one seat on the ride for the rider.
//
// Order matters: the duplicate check and chat provisioning run before
// the seat transaction, and the chat is deliberately not rolled back if
// the transaction fails afterwards. An orphan chat is harmless clutter;
// a booking without a chat would leave the two parties unable to talk,
// which is why a provisioning failure aborts the whole operation.
func (s *Service) BookRide(rideID, riderID string) (*models.Booking, error) {
	ride, err := s.Store.GetRide(rideID)
	if err != nil {
		return nil, s.fail("ride_lookup", err)
	}
	if ride.DriverID == riderID {
		// Listings already exclude own rides; re-check here anyway.
		return nil, s.fail("self_booking", models.ErrSelfBooking)
	}

	booked, err := s.Store.HasBooking(rideID, riderID)
	if err != nil {
		return nil, s.fail("duplicate_check", err)
	}
	if booked {
		return nil, s.fail("already_booked", models.ErrAlreadyBooked)
	}

	rider, err := s.Store.GetUserByID(riderID)
	if err != nil {
		return nil, s.fail("rider_lookup", err)
	}

	chat, err := s.ensureChat(ride, rider)
	if err != nil {
		return nil, s.fail("chat_provisioning", fmt.Errorf("%w: %v", models.ErrChatProvisioning, err))
	}

	b := &models.Booking{
		ID:          uuid.NewString(),
		RideID:      ride.ID,
		RiderID:     rider.ID,
		RiderName:   rider.DisplayName,
		RiderPhoto:  rider.PhotoURL,
		SeatsBooked: 1,
		TotalPrice:  ride.PricePerSeat,
		Status:      models.BookingConfirmed,
		ChatID:      chat.ID,
		CreatedAt:   time.Now(),
	}
	if err := s.Store.CreateBookingAndReserveSeat(b); err != nil {
		switch {
		case errors.Is(err, models.ErrRideFull):
			return nil, s.fail("ride_full", err)
		case errors.Is(err, models.ErrAlreadyBooked):
			return nil, s.fail("already_booked", err)
		case errors.Is(err, models.ErrNotFound):
			return nil, s.fail("ride_gone", err)
		}
		return nil, s.fail("persistence", err)
	}

	metrics.BookingsTotal.Inc()
	if s.Notifier != nil {
		s.Notifier.NotifyUser(rider.ID, "booking_confirmed", b)
		s.Notifier.NotifyUser(ride.DriverID, "ride_booked", b)
	}
	return b, nil
}

// ensureChat returns the existing chat for (ride, rider) or creates one.
// The lookup makes re-provisioning idempotent: racing duplicates resolve
// to whichever chat was found first on the next attempt.
func (s *Service) ensureChat(ride *models.Ride, rider *models.User) (*models.Chat, error) {
	chat, err := s.Store.GetRideChatFor(ride.ID, rider.ID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	chat = &models.Chat{
		ID:           uuid.NewString(),
		RideID:       ride.ID,
		Participants: []string{rider.ID, ride.DriverID},
		Details: map[string]models.Participant{
			rider.ID:      {Name: rider.DisplayName, Photo: rider.PhotoURL},
			ride.DriverID: {Name: ride.DriverName, Photo: ride.DriverPhoto},
		},
		LastMessage:     SeededLastMessage,
		LastMessageTime: now,
		CreatedAt:       now,
	}
	if err := s.Store.CreateChat(chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *Service) fail(reason string, err error) error {
	metrics.BookingFailures.WithLabelValues(reason).Inc()
	return err
}
