package sqlstore

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/ridepool/internal/models"
)

func newTestBooking(ride *models.Ride, rider *models.User) *models.Booking {
	return &models.Booking{
		ID:          uuid.NewString(),
		RideID:      ride.ID,
		RiderID:     rider.ID,
		RiderName:   rider.DisplayName,
		SeatsBooked: 1,
		TotalPrice:  ride.PricePerSeat,
		Status:      models.BookingConfirmed,
		CreatedAt:   time.Now(),
	}
}

func TestCreateBookingAndReserveSeat(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	driver := createTestUser(t, "driver")
	rider := createTestUser(t, "rider")
	ride := createTestRide(t, driver, 2, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	if err := testStore.CreateBookingAndReserveSeat(newTestBooking(ride, rider)); err != nil {
		t.Fatalf("Failed to book: %v", err)
	}

	got, _ := testStore.GetRide(ride.ID)
	if got.AvailableSeats != 1 {
		t.Errorf("Expected 1 seat left, got %d", got.AvailableSeats)
	}
	if len(got.Passengers) != 1 || got.Passengers[0] != rider.ID {
		t.Errorf("Expected passengers [%s], got %v", rider.ID, got.Passengers)
	}
}

func TestBookingDuplicateRider(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	driver := createTestUser(t, "driver")
	rider := createTestUser(t, "rider")
	ride := createTestRide(t, driver, 3, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	if err := testStore.CreateBookingAndReserveSeat(newTestBooking(ride, rider)); err != nil {
		t.Fatalf("First booking failed: %v", err)
	}
	err := testStore.CreateBookingAndReserveSeat(newTestBooking(ride, rider))
	if !errors.Is(err, models.ErrAlreadyBooked) {
		t.Fatalf("Expected ErrAlreadyBooked, got %v", err)
	}

	// The failed attempt must not consume a seat.
	got, _ := testStore.GetRide(ride.ID)
	if got.AvailableSeats != 2 {
		t.Errorf("Expected 2 seats left after rejected duplicate, got %d", got.AvailableSeats)
	}
	bookings, _ := testStore.ListBookingsByRide(ride.ID)
	if len(bookings) != 1 {
		t.Errorf("Expected 1 booking, got %d", len(bookings))
	}
}

func TestBookingRideFull(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	driver := createTestUser(t, "driver")
	r1 := createTestUser(t, "r1")
	r2 := createTestUser(t, "r2")
	ride := createTestRide(t, driver, 1, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	if err := testStore.CreateBookingAndReserveSeat(newTestBooking(ride, r1)); err != nil {
		t.Fatalf("First booking failed: %v", err)
	}
	err := testStore.CreateBookingAndReserveSeat(newTestBooking(ride, r2))
	if !errors.Is(err, models.ErrRideFull) {
		t.Fatalf("Expected ErrRideFull, got %v", err)
	}

	got, _ := testStore.GetRide(ride.ID)
	if got.AvailableSeats != 0 {
		t.Errorf("Expected 0 seats, got %d", got.AvailableSeats)
	}
	if len(got.Passengers) != 1 {
		t.Errorf("Expected 1 passenger, got %d", len(got.Passengers))
	}
}

func TestBookingUnknownRide(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	rider := createTestUser(t, "rider")
	booking := &models.Booking{
		ID: uuid.NewString(), RideID: "no-such-ride", RiderID: rider.ID, RiderName: rider.DisplayName,
		SeatsBooked: 1, Status: models.BookingConfirmed, CreatedAt: time.Now(),
	}
	if err := testStore.CreateBookingAndReserveSeat(booking); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestHasBooking(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	driver := createTestUser(t, "driver")
	rider := createTestUser(t, "rider")
	ride := createTestRide(t, driver, 2, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	has, err := testStore.HasBooking(ride.ID, rider.ID)
	if err != nil || has {
		t.Errorf("Expected no booking yet, got has=%v err=%v", has, err)
	}

	if err := testStore.CreateBookingAndReserveSeat(newTestBooking(ride, rider)); err != nil {
		t.Fatalf("Failed to book: %v", err)
	}

	has, err = testStore.HasBooking(ride.ID, rider.ID)
	if err != nil || !has {
		t.Errorf("Expected booking to exist, got has=%v err=%v", has, err)
	}
}

func TestListBookingsByRider(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	driver := createTestUser(t, "driver")
	rider := createTestUser(t, "rider")
	ride1 := createTestRide(t, driver, 2, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	ride2 := createTestRide(t, driver, 2, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))

	testStore.CreateBookingAndReserveSeat(newTestBooking(ride1, rider))
	testStore.CreateBookingAndReserveSeat(newTestBooking(ride2, rider))

	bookings, err := testStore.ListBookingsByRider(rider.ID)
	if err != nil {
		t.Fatalf("ListBookingsByRider failed: %v", err)
	}
	if len(bookings) != 2 {
		t.Errorf("Expected 2 bookings, got %d", len(bookings))
	}
}
