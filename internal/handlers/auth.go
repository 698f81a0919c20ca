package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avolkov/ridepool/internal/auth"
	"github.com/avolkov/ridepool/internal/middleware"
	"github.com/avolkov/ridepool/internal/models"
	"github.com/avolkov/ridepool/internal/store"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthHandler struct {
	Store  store.Store
	Signer *auth.Signer
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	type SignupRequest struct {
		Email       string      `json:"email"`
		Password    string      `json:"password"`
		DisplayName string      `json:"display_name"`
		Role        models.Role `json:"role"`
		Phone       string      `json:"phone"`
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.DisplayName == "" {
		http.Error(w, "Email and display name are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		http.Error(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleRider
	}
	if !req.Role.Valid() {
		http.Error(w, "Role must be driver, rider or both", http.StatusBadRequest)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		ID:          uuid.NewString(),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    string(hashedPassword),
		Phone:       req.Phone,
		Role:        req.Role,
		Rating:      5.0,
		TotalRides:  0,
		CreatedAt:   time.Now(),
	}

	if err := h.Store.CreateUser(user); err != nil {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	// The new identity becomes the active session.
	h.setSession(w, user.ID)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Unknown email and wrong password collapse into one message.
	user, err := h.Store.GetUserByEmail(creds.Email)
	if err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.setSession(w, user.ID)
	json.NewEncoder(w).Encode(user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(user)
}

// UpdateMe merges the provided fields into the profile. Display fields
// already denormalized onto rides and chats keep their old values.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	type UpdateRequest struct {
		DisplayName *string         `json:"display_name"`
		PhotoURL    *string         `json:"photo_url"`
		Phone       *string         `json:"phone"`
		Role        *models.Role    `json:"role"`
		Bio         *string         `json:"bio"`
		Vehicle     *models.Vehicle `json:"vehicle"`
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.PhotoURL != nil {
		user.PhotoURL = *req.PhotoURL
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			http.Error(w, "Role must be driver, rider or both", http.StatusBadRequest)
			return
		}
		user.Role = *req.Role
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Vehicle != nil {
		user.Vehicle = req.Vehicle
	}

	if err := h.Store.UpdateProfile(user); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(user)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    h.Signer.Sign(userID),
		Path:     "/",
		HttpOnly: true,
	})
}
