package main

import (
	"flag"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avolkov/ridepool/internal/auth"
	"github.com/avolkov/ridepool/internal/booking"
	"github.com/avolkov/ridepool/internal/config"
	"github.com/avolkov/ridepool/internal/handlers"
	"github.com/avolkov/ridepool/internal/metrics"
	"github.com/avolkov/ridepool/internal/middleware"
	"github.com/avolkov/ridepool/internal/store/sqlstore"
	"github.com/avolkov/ridepool/internal/ws"
)

var addr = flag.String("addr", "", "http service address (overrides HTTP_ADDR)")

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	// Initialize Database
	store, err := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Initialize WebSocket Hub
	hub := ws.NewHub(store)
	go hub.Run()

	signer := auth.NewSigner(cfg.CookieSecret)
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMin, cfg.LoginBurst)
	defer loginLimiter.Stop()

	// Initialize Handlers
	authHandler := &handlers.AuthHandler{Store: store, Signer: signer}
	rideHandler := &handlers.RideHandler{Store: store, Bookings: booking.NewService(store, hub)}
	chatHandler := &handlers.ChatHandler{Store: store, Hub: hub}

	requireAuth := middleware.Auth(signer)

	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(metrics.Middleware)

	// API Endpoints
	r.Handle("/signup", loginLimiter.Middleware(http.HandlerFunc(authHandler.Signup))).Methods("POST")
	r.Handle("/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login))).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	r.Handle("/me", requireAuth(http.HandlerFunc(authHandler.Me))).Methods("GET")
	r.Handle("/me", requireAuth(http.HandlerFunc(authHandler.UpdateMe))).Methods("PATCH")

	r.Handle("/rides", requireAuth(http.HandlerFunc(rideHandler.PostRide))).Methods("POST")
	r.Handle("/rides", requireAuth(http.HandlerFunc(rideHandler.ListRides))).Methods("GET")
	r.Handle("/rides/mine", requireAuth(http.HandlerFunc(rideHandler.MyRides))).Methods("GET")
	r.Handle("/rides/{id}", requireAuth(http.HandlerFunc(rideHandler.DeleteRide))).Methods("DELETE")
	r.Handle("/rides/{id}/bookings", requireAuth(http.HandlerFunc(rideHandler.BookRide))).Methods("POST")
	r.Handle("/bookings", requireAuth(http.HandlerFunc(rideHandler.MyBookings))).Methods("GET")

	r.Handle("/chats", requireAuth(http.HandlerFunc(chatHandler.GetChats))).Methods("GET")
	r.Handle("/chats/{id}/messages", requireAuth(http.HandlerFunc(chatHandler.GetChatMessages))).Methods("GET")
	r.Handle("/chats/{id}/messages", requireAuth(http.HandlerFunc(chatHandler.SendMessage))).Methods("POST")

	// WebSocket Endpoint
	r.Handle("/ws", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r, middleware.UserID(r))
	})))

	// Metrics
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Serve index.html for the web client shell
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, "static/index.html")
	})

	// Serve static files with cache-busting headers for development
	r.PathPrefix("/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".css") || strings.HasSuffix(r.URL.Path, ".js") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		http.FileServer(http.Dir("static")).ServeHTTP(w, r)
	}))

	log.Println("Starting server on", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
