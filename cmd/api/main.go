// cmd/api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"food-rescue-api-server/config"
	"food-rescue-api-server/internal/api/routes"
	"food-rescue-api-server/internal/auth"
	"food-rescue-api-server/internal/database"
	"food-rescue-api-server/internal/donation"
	"food-rescue-api-server/internal/events"
	"food-rescue-api-server/internal/geo"
	"food-rescue-api-server/internal/s3"
	"food-rescue-api-server/internal/socket"

	"github.com/joho/godotenv"
)

func main() {
	// 0. Nạp .env nếu có (chỉ dùng khi phát triển local)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL())
	if err != nil {
		log.Fatalf("Invalid JWT configuration: %v", err)
	}

	// 2. Chọn record store: MongoDB hoặc bộ nhớ trong
	var (
		store  donation.Store
		actors donation.ActorRegistry
	)
	switch cfg.Store.Driver {
	case "memory":
		log.Println("Using in-memory store, data is lost on restart")
		store = donation.NewMemoryStore()
		actors = donation.NewMemoryActors()
	default:
		client, db, err := database.Connect(ctx, cfg.Mongo)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(context.Background())
		log.Println("Successfully connected to MongoDB!")
		store = database.NewDonationStore(db)
		actors = database.NewActorStore(db)
	}

	if cfg.Store.SeedDemoActors {
		if err := database.SeedDemoActors(ctx, actors); err != nil {
			log.Fatalf("Failed to seed demo actors: %v", err)
		}
	}

	// 3. Distance cache đứng trước OSRM
	distances := geo.NewCache(geo.NewOSRMResolver(cfg.OSRM.BaseURL, cfg.OSRM.Timeout), cfg.OSRM.MaxInFlight, cfg.OSRM.Timeout)

	// 4. Realtime hub và các kênh thông báo
	hub := socket.NewHub()
	notifiers := donation.Notifiers{hub}
	if cfg.AMQP.Enabled() {
		publisher, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		log.Printf("Publishing donation events to exchange %s", cfg.AMQP.Exchange)
	}

	opts := []donation.Option{donation.WithNotifier(notifiers)}
	if cfg.S3.Enabled() {
		uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3 uploader: %v", err)
		}
		opts = append(opts, donation.WithPhotoStore(uploader))
	} else {
		log.Println("S3 is not configured, photo uploads are disabled")
	}

	coordinator := donation.NewCoordinator(store, actors, distances, opts...)

	// 5. Truyền tất cả các thành phần cần thiết vào router
	router := routes.SetupRouter(routes.Dependencies{
		Config:      cfg,
		Coordinator: coordinator,
		Store:       store,
		Actors:      actors,
		Tokens:      tokens,
		Hub:         hub,
	})

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: router}
	go func() {
		// 6. Start server
		log.Printf("Starting API server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}
