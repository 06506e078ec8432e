package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"

	"spotrent/internal/api"
	"spotrent/internal/auth"
	"spotrent/internal/db"
	"spotrent/internal/repository"
	"spotrent/internal/service"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	spotRepo := repository.NewSpotRepository(database)
	bookingRepo := repository.NewBookingRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	userRepo := repository.NewUserRepository(database)
	jobRepo := repository.NewJobRepository(database)

	stripeSvc := service.NewStripeService()
	paymentSvc := service.NewPaymentService(stripeSvc, paymentRepo)
	notifier := service.NewSenderService()
	spotSvc := service.NewSpotService(spotRepo)
	bookingSvc := service.NewBookingService(bookingRepo, spotRepo, userRepo, paymentSvc, notifier)
	sessionSvc := service.NewSessionService(bookingRepo, spotRepo, userRepo, paymentSvc)
	authSvc := service.NewAuthService(userRepo)
	jobSvc := service.NewJobService(jobRepo)

	authHandler := api.NewAuthHandler(authSvc)
	spotHandler := api.NewSpotHandler(spotSvc)
	bookingHandler := api.NewBookingHandler(bookingSvc)
	sessionHandler := api.NewSessionHandler(sessionSvc)
	stripeHandler := api.NewStripeWebhookHandler(paymentSvc, bookingSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/spots", spotHandler.SearchSpots).Methods("GET")
	r.HandleFunc("/api/spots/nearby", spotHandler.NearbySpots).Methods("GET")
	r.HandleFunc("/api/spots/{id}", spotHandler.GetSpot).Methods("GET")
	r.HandleFunc("/api/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")

	// Owner endpoints (protected)
	owner := r.PathPrefix("/api").Subrouter()
	owner.Use(auth.Middleware, auth.RequireRole(db.RoleOwner))
	owner.HandleFunc("/spots", spotHandler.CreateSpot).Methods("POST")
	owner.HandleFunc("/spots/{id}", spotHandler.UpdateSpot).Methods("PUT")
	owner.HandleFunc("/spots/{id}", spotHandler.DeleteSpot).Methods("DELETE")
	owner.HandleFunc("/spots/{id}/bookings", bookingHandler.ListSpotBookings).Methods("GET")

	// Renter endpoints (protected)
	renter := r.PathPrefix("/api").Subrouter()
	renter.Use(auth.Middleware, auth.RequireRole(db.RoleRenter))
	renter.HandleFunc("/availability", bookingHandler.CheckAvailability).Methods("POST")
	renter.HandleFunc("/bookings", bookingHandler.CreateBooking).Methods("POST")
	renter.HandleFunc("/bookings", bookingHandler.ListMyBookings).Methods("GET")
	renter.HandleFunc("/bookings/{code}", bookingHandler.GetBooking).Methods("GET")
	renter.HandleFunc("/bookings/{code}", bookingHandler.CancelBooking).Methods("DELETE")
	renter.HandleFunc("/sessions/prepare", sessionHandler.PrepareSession).Methods("POST")
	renter.HandleFunc("/sessions/start", sessionHandler.StartSession).Methods("POST")
	renter.HandleFunc("/sessions/{code}/stop", sessionHandler.StopSession).Methods("POST")

	c := cron.New()
	c.AddFunc("@every 1m", func() {
		ctx := context.Background()
		if err := jobSvc.ActivateStartedBookings(ctx); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
		if err := jobSvc.CompleteFinishedBookings(ctx); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.AddFunc("@every 30m", func() {
		if err := jobSvc.CancelStalePendingBookings(context.Background(), 2*time.Hour); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, corsHandler)))
}
