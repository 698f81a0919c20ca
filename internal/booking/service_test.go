package booking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/avolkov/ridepool/internal/models"
	"github.com/avolkov/ridepool/internal/store/sqlstore"
)

func newTestService(t *testing.T) (*Service, *sqlstore.SQLStore) {
	t.Helper()
	st, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, nil), st
}

func createUser(t *testing.T, st *sqlstore.SQLStore, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:          uuid.NewString(),
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "hashed",
		Role:        models.RoleBoth,
		Rating:      5.0,
		CreatedAt:   time.Now(),
	}
	if err := st.CreateUser(user); err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}

func createRide(t *testing.T, st *sqlstore.SQLStore, driver *models.User, seats int) *models.Ride {
	t.Helper()
	ride := &models.Ride{
		ID:             uuid.NewString(),
		DriverID:       driver.ID,
		DriverName:     driver.DisplayName,
		DriverRating:   driver.Rating,
		From:           "Austin",
		To:             "Dallas",
		DepartAt:       time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		AvailableSeats: seats,
		PricePerSeat:   10,
		Status:         models.RideUpcoming,
		CreatedAt:      time.Now(),
	}
	if err := st.CreateRide(ride); err != nil {
		t.Fatalf("Failed to create ride: %v", err)
	}
	return ride
}

func TestBookRide(t *testing.T) {
	svc, st := newTestService(t)
	driver := createUser(t, st, "driver")
	rider := createUser(t, st, "rider")
	ride := createRide(t, st, driver, 2)

	b, err := svc.BookRide(ride.ID, rider.ID)
	if err != nil {
		t.Fatalf("BookRide failed: %v", err)
	}
	if b.Status != models.BookingConfirmed {
		t.Errorf("Expected confirmed booking, got %s", b.Status)
	}
	if b.SeatsBooked != 1 || b.TotalPrice != 10 {
		t.Errorf("Expected 1 seat at $10, got %d at $%v", b.SeatsBooked, b.TotalPrice)
	}
	if b.ChatID == "" {
		t.Fatal("Expected booking linked to a chat")
	}

	got, _ := st.GetRide(ride.ID)
	if got.AvailableSeats != 1 {
		t.Errorf("Expected 1 seat left, got %d", got.AvailableSeats)
	}

	chat, err := st.GetChat(b.ChatID)
	if err != nil {
		t.Fatalf("Expected chat to exist: %v", err)
	}
	if len(chat.Participants) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(chat.Participants))
	}
	if chat.Details[driver.ID].Name != "driver" || chat.Details[rider.ID].Name != "rider" {
		t.Errorf("Expected participant details for both parties, got %+v", chat.Details)
	}
	if chat.LastMessage != SeededLastMessage {
		t.Errorf("Expected seeded last message, got '%s'", chat.LastMessage)
	}
}

func TestBookRideSelfBooking(t *testing.T) {
	svc, st := newTestService(t)
	driver := createUser(t, st, "driver")
	ride := createRide(t, st, driver, 2)

	_, err := svc.BookRide(ride.ID, driver.ID)
	if !errors.Is(err, models.ErrSelfBooking) {
		t.Fatalf("Expected ErrSelfBooking, got %v", err)
	}

	// No side effects at all.
	got, _ := st.GetRide(ride.ID)
	if got.AvailableSeats != 2 {
		t.Errorf("Expected seats untouched, got %d", got.AvailableSeats)
	}
	chats, _ := st.GetUserChats(driver.ID)
	if len(chats) != 0 {
		t.Errorf("Expected no chats, got %d", len(chats))
	}
}

func TestBookRideDuplicate(t *testing.T) {
	svc, st := newTestService(t)
	driver := createUser(t, st, "driver")
	rider := createUser(t, st, "rider")
	ride := createRide(t, st, driver, 3)

	if _, err := svc.BookRide(ride.ID, rider.ID); err != nil {
		t.Fatalf("First booking failed: %v", err)
	}
	_, err := svc.BookRide(ride.ID, rider.ID)
	if !errors.Is(err, models.ErrAlreadyBooked) {
		t.Fatalf("Expected ErrAlreadyBooked, got %v", err)
	}

	// Seats decreased by exactly 1, not 2, and only one booking exists.
	got, _ := st.GetRide(ride.ID)
	if got.AvailableSeats != 2 {
		t.Errorf("Expected 2 seats left, got %d", got.AvailableSeats)
	}
	bookings, _ := st.ListBookingsByRide(ride.ID)
	if len(bookings) != 1 {
		t.Errorf("Expected 1 booking, got %d", len(bookings))
	}
}

func TestBookRideUnknownRide(t *testing.T) {
	svc, st := newTestService(t)
	rider := createUser(t, st, "rider")

	_, err := svc.BookRide("no-such-ride", rider.ID)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

// Two riders on one ride: two seats drain to zero, each rider gets a
// distinct chat with the driver, and a third rider is turned away with
// everyone else's records unchanged.
func TestBookRideScenario(t *testing.T) {
	svc, st := newTestService(t)
	driver := createUser(t, st, "d")
	r1 := createUser(t, st, "r1")
	r2 := createUser(t, st, "r2")
	r3 := createUser(t, st, "r3")
	ride := createRide(t, st, driver, 2)

	b1, err := svc.BookRide(ride.ID, r1.ID)
	if err != nil {
		t.Fatalf("R1 booking failed: %v", err)
	}
	got, _ := st.GetRide(ride.ID)
	if got.AvailableSeats != 1 {
		t.Errorf("Expected 1 seat after R1, got %d", got.AvailableSeats)
	}

	b2, err := svc.BookRide(ride.ID, r2.ID)
	if err != nil {
		t.Fatalf("R2 booking failed: %v", err)
	}
	if b2.ChatID == b1.ChatID {
		t.Error("Expected R2's chat to be distinct from R1's")
	}
	got, _ = st.GetRide(ride.ID)
	if got.AvailableSeats != 0 {
		t.Errorf("Expected 0 seats after R2, got %d", got.AvailableSeats)
	}

	_, err = svc.BookRide(ride.ID, r3.ID)
	if !errors.Is(err, models.ErrRideFull) {
		t.Fatalf("Expected ErrRideFull for R3, got %v", err)
	}

	got, _ = st.GetRide(ride.ID)
	if got.AvailableSeats != 0 {
		t.Errorf("Seat count moved after rejected booking: %d", got.AvailableSeats)
	}
	if len(got.Passengers) != 2 {
		t.Errorf("Expected 2 passengers, got %d", len(got.Passengers))
	}
	bookings, _ := st.ListBookingsByRide(ride.ID)
	if len(bookings) != 2 {
		t.Errorf("Expected 2 bookings, got %d", len(bookings))
	}
}

// With N seats and more than N concurrent bookers, exactly N succeed
// and the counter lands on zero, never below.
func TestBookRideConcurrent(t *testing.T) {
	svc, st := newTestService(t)
	driver := createUser(t, st, "driver")
	ride := createRide(t, st, driver, 3)

	riders := make([]*models.User, 8)
	for i := range riders {
		riders[i] = createUser(t, st, "rider"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(riders))
	for i, rider := range riders {
		wg.Add(1)
		go func(i int, riderID string) {
			defer wg.Done()
			_, errs[i] = svc.BookRide(ride.ID, riderID)
		}(i, rider.ID)
	}
	wg.Wait()

	succeeded, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrRideFull):
			full++
		default:
			t.Errorf("Unexpected booking error: %v", err)
		}
	}
	if succeeded != 3 {
		t.Errorf("Expected exactly 3 successful bookings, got %d", succeeded)
	}
	if full != 5 {
		t.Errorf("Expected 5 ride-full rejections, got %d", full)
	}

	got, _ := st.GetRide(ride.ID)
	if got.AvailableSeats != 0 {
		t.Errorf("Expected 0 seats left, got %d", got.AvailableSeats)
	}
	if len(got.Passengers) != 3 {
		t.Errorf("Expected 3 passengers, got %d", len(got.Passengers))
	}
	bookings, _ := st.ListBookingsByRide(ride.ID)
	if len(bookings) != 3 {
		t.Errorf("Expected 3 bookings, got %d", len(bookings))
	}
}

// A chat provisioned for a (ride, rider) pair is reused rather than
// duplicated if the pair books again after their booking was removed.
func TestBookRideReusesChat(t *testing.T) {
	svc, st := newTestService(t)
	driver := createUser(t, st, "driver")
	rider := createUser(t, st, "rider")
	ride := createRide(t, st, driver, 2)

	b1, err := svc.BookRide(ride.ID, rider.ID)
	if err != nil {
		t.Fatalf("BookRide failed: %v", err)
	}

	// The chat outlives the booking records; a fresh booking finds it.
	chat, err := st.GetRideChatFor(ride.ID, rider.ID)
	if err != nil {
		t.Fatalf("Expected provisioned chat: %v", err)
	}
	if chat.ID != b1.ChatID {
		t.Errorf("Expected lookup to return the provisioned chat")
	}
}
