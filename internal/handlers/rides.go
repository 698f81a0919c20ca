package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/avolkov/ridepool/internal/booking"
	"github.com/avolkov/ridepool/internal/metrics"
	"github.com/avolkov/ridepool/internal/middleware"
	"github.com/avolkov/ridepool/internal/models"
	"github.com/avolkov/ridepool/internal/store"
)

type RideHandler struct {
	Store    store.Store
	Bookings *booking.Service
}

type PostRideRequest struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	Date           string  `json:"date"` // 2006-01-02
	Time           string  `json:"time"` // 15:04
	AvailableSeats int     `json:"available_seats"`
	PricePerSeat   float64 `json:"price_per_seat"`
	Description    string  `json:"description"`
}

func (h *RideHandler) PostRide(w http.ResponseWriter, r *http.Request) {
	var req PostRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.From == "" || req.To == "" || req.Date == "" || req.Time == "" {
		http.Error(w, "Please fill in all required fields", http.StatusBadRequest)
		return
	}
	if req.AvailableSeats < 1 {
		http.Error(w, "At least one seat must be offered", http.StatusBadRequest)
		return
	}

	departAt, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, time.Local)
	if err != nil {
		http.Error(w, "Invalid date or time", http.StatusBadRequest)
		return
	}

	driver, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Driver display fields are copied here and stay as posted.
	ride := &models.Ride{
		ID:             uuid.NewString(),
		DriverID:       driver.ID,
		DriverName:     driver.DisplayName,
		DriverPhoto:    driver.PhotoURL,
		DriverRating:   driver.Rating,
		From:           req.From,
		To:             req.To,
		DepartAt:       departAt,
		AvailableSeats: req.AvailableSeats,
		PricePerSeat:   req.PricePerSeat,
		Vehicle:        driver.Vehicle,
		Description:    req.Description,
		Status:         models.RideUpcoming,
		Passengers:     []string{},
		CreatedAt:      time.Now(),
	}

	if err := h.Store.CreateRide(ride); err != nil {
		http.Error(w, "Failed to post ride", http.StatusInternalServerError)
		return
	}

	metrics.RidesPostedTotal.Inc()
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ride)
}

// ListRides returns bookable upcoming rides posted by other drivers,
// optionally narrowed by from/to substrings and an exact date.
func (h *RideHandler) ListRides(w http.ResponseWriter, r *http.Request) {
	filter := store.RideFilter{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
		Date: r.URL.Query().Get("date"),
	}

	rides, err := h.Store.ListUpcomingRides(middleware.UserID(r), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rides == nil {
		rides = []models.Ride{}
	}
	json.NewEncoder(w).Encode(rides)
}

func (h *RideHandler) MyRides(w http.ResponseWriter, r *http.Request) {
	rides, err := h.Store.ListRidesByDriver(middleware.UserID(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rides == nil {
		rides = []models.Ride{}
	}
	json.NewEncoder(w).Encode(rides)
}

// DeleteRide removes the caller's own posting together with its
// bookings and chats. The cascade is best-effort: a reported failure
// may still have removed part of the dependent records.
func (h *RideHandler) DeleteRide(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["id"]

	ride, err := h.Store.GetRide(rideID)
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "This ride is no longer available", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ride.DriverID != middleware.UserID(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.Store.DeleteRideCascade(rideID); err != nil {
		http.Error(w, "Failed to delete ride: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RideHandler) BookRide(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["id"]

	b, err := h.Bookings.BookRide(rideID, middleware.UserID(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrSelfBooking):
			http.Error(w, "You cannot book your own ride", http.StatusBadRequest)
		case errors.Is(err, models.ErrAlreadyBooked):
			http.Error(w, "You have already booked this ride", http.StatusConflict)
		case errors.Is(err, models.ErrRideFull):
			http.Error(w, "Sorry, this ride is now full", http.StatusConflict)
		case errors.Is(err, models.ErrNotFound):
			http.Error(w, "This ride is no longer available", http.StatusNotFound)
		case errors.Is(err, models.ErrChatProvisioning):
			http.Error(w, "Failed to create chat. Please try again.", http.StatusInternalServerError)
		default:
			http.Error(w, "Failed to book ride. Please try again.", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

func (h *RideHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Store.ListBookingsByRider(middleware.UserID(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	json.NewEncoder(w).Encode(bookings)
}
