package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/eventsphere/eventsphere/internal/clock"
	"github.com/eventsphere/eventsphere/internal/config" // Internal config loader
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/handler"
	"github.com/eventsphere/eventsphere/internal/qr"
	"github.com/eventsphere/eventsphere/internal/queue"
	"github.com/eventsphere/eventsphere/internal/repository"
	"github.com/eventsphere/eventsphere/internal/router" // Internal router setup
	"github.com/eventsphere/eventsphere/internal/service"
)

func main() {
	// Load .env when present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: with no reachable server the response cache and
	// rate limiter disable themselves.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	}

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	promotions := repository.NewPromotionRepo(db)
	loyalty := repository.NewLoyaltyRepo(db)
	store := repository.NewBookingStore(db)

	// Booking orchestrator
	issuer := qr.NewPayloadIssuer(cfg.TicketQRDir)
	svc := service.NewBookingService(store, issuer, clock.NewSystem())

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(events)
	bookingH := handler.NewBookingHandler(svc, bookings)
	loyaltyH := handler.NewLoyaltyHandler(users, loyalty)
	organizerH := handler.NewOrganizerHandler(events, bookings)
	adminH := handler.NewAdminHandler(promotions, bookings, users)

	// Background consumer feeding logs/booking.log from the broker.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, rdb)
	router.RegisterCustomer(e, bookingH, loyaltyH, cfg.JWTSecret)
	router.RegisterOrganizer(e, organizerH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
