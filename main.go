package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"

	"github.com/example/ephemeral-chat/domain/room"
	"github.com/example/ephemeral-chat/modules/api"
	"github.com/example/ephemeral-chat/modules/reclaimer"
	"github.com/example/ephemeral-chat/modules/rooms"
	"github.com/example/ephemeral-chat/modules/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Ephemeral Chat - passcode-gated rooms with TTL expiry ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	store, err := buildStore()
	if err != nil {
		log.Fatalf("Failed to initialize room store: %v", err)
	}

	clock := room.SystemClock{}

	// Create modules
	reclaimerModule := reclaimer.NewModule(store, clock, sweepInterval(), app.Logger())
	roomsModule, err := rooms.NewModule(store, clock, reclaimerModule, app.Logger())
	if err != nil {
		log.Fatalf("Failed to create rooms module: %v", err)
	}
	apiModule := api.NewModule()

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - reclaimer: background expiry sweep (event emitter)
	// - rooms: core domain (ServiceProviderModule + EventEmitterModule)
	// - api: driving adapter (Fiber HTTP server, depends on rooms)
	app.Register(reclaimerModule)
	app.Register(roomsModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// buildStore selects the room store backend from STORE_BACKEND:
// memory (default), redis, or jetstream.
func buildStore() (storage.Store, error) {
	switch backend := os.Getenv("STORE_BACKEND"); backend {
	case "", "memory":
		return storage.NewMemoryStore(), nil
	case "redis":
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
		}
		return storage.NewRedisStore(client), nil
	case "jetstream":
		natsURL := os.Getenv("NATS_URL")
		if natsURL == "" {
			natsURL = "nats://localhost:4222"
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewJetStreamStore(ctx, natsURL)
	default:
		log.Printf("Unknown STORE_BACKEND %q, falling back to memory", backend)
		return storage.NewMemoryStore(), nil
	}
}

// sweepInterval reads SWEEP_INTERVAL (a Go duration, e.g. "30s").
func sweepInterval() time.Duration {
	raw := os.Getenv("SWEEP_INTERVAL")
	if raw == "" {
		return reclaimer.DefaultSweepInterval
	}
	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		log.Printf("Invalid SWEEP_INTERVAL %q, using default", raw)
		return reclaimer.DefaultSweepInterval
	}
	return interval
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	backend := os.Getenv("STORE_BACKEND")
	if backend == "" {
		backend = "memory"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber")
	log.Printf("  - Room Store: %s", backend)
	log.Println("  - Expiry: lazy reclaim on read + periodic background sweep")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                       - Health check")
	log.Println("  GET    /api/v1/rooms                 - List live rooms")
	log.Println("  POST   /api/v1/rooms                 - Create a room")
	log.Println("  GET    /api/v1/rooms/:id             - Get room details")
	log.Println("  GET    /api/v1/rooms/:id/ttl         - Time until expiry")
	log.Println("  POST   /api/v1/rooms/join            - Join a room by name")
	log.Println("  POST   /api/v1/rooms/:id/join        - Join a room")
	log.Println("  POST   /api/v1/rooms/:id/leave       - Leave a room")
	log.Println("  GET    /api/v1/rooms/:id/messages    - List messages")
	log.Println("  POST   /api/v1/rooms/:id/messages    - Post a message")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
