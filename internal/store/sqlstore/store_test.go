package sqlstore

import (
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/avolkov/ridepool/internal/models"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
}

func TeardownTestDB() {
	testStore.Close()
}

func createTestUser(t *testing.T, name string) *models.User {
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
	if err := testStore.CreateUser(user); err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}

func createTestRide(t *testing.T, driver *models.User, seats int, departAt time.Time) *models.Ride {
	t.Helper()
	ride := &models.Ride{
		ID:             uuid.NewString(),
		DriverID:       driver.ID,
		DriverName:     driver.DisplayName,
		DriverRating:   driver.Rating,
		From:           "Austin",
		To:             "Dallas",
		DepartAt:       departAt,
		AvailableSeats: seats,
		PricePerSeat:   10,
		Status:         models.RideUpcoming,
		CreatedAt:      time.Now(),
	}
	if err := testStore.CreateRide(ride); err != nil {
		t.Fatalf("Failed to create ride: %v", err)
	}
	return ride
}

func createTestChat(t *testing.T, rideID string, a, b *models.User) *models.Chat {
	t.Helper()
	chat := &models.Chat{
		ID:           uuid.NewString(),
		RideID:       rideID,
		Participants: []string{a.ID, b.ID},
		Details: map[string]models.Participant{
			a.ID: {Name: a.DisplayName},
			b.ID: {Name: b.DisplayName},
		},
		CreatedAt: time.Now(),
	}
	if err := testStore.CreateChat(chat); err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}
	return chat
}
