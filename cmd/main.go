/**
 * @description
 * This is the main entry point for the feed-service. It is responsible for
 * initializing all components of the service, including configuration, the
 * core banking API client, session storage, the event publisher, the core
 * application service, and the HTTP server. It wires everything together and
 * starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/redis/go-redis/v9: Optional Redis-backed session store.
 * - internal/api, internal/app, internal/config, internal/session: Internal packages for the service.
 * - pkg/corebank: Client for the Loretta core banking API.
 * - pkg/events: RabbitMQ event publishing.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorettabank/feed-service/internal/api"
	"github.com/lorettabank/feed-service/internal/app"
	"github.com/lorettabank/feed-service/internal/config"
	"github.com/lorettabank/feed-service/internal/session"
	"github.com/lorettabank/feed-service/pkg/corebank"
	"github.com/lorettabank/feed-service/pkg/events"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.CoreBankAPIBaseURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"core banking base url must be configured\" env=COREBANK_API_BASE_URL")
	}

	log.Printf("level=info component=bootstrap msg=\"starting feed-service\" port=%s upstream=%s", cfg.ServerPort, cfg.CoreBankAPIBaseURL)

	// Session storage: Redis when configured, in-process otherwise. A single
	// instance works fine on memory; Redis lets sessions survive restarts and
	// be shared across replicas.
	var sessions session.Store
	if cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; using in-memory sessions\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := redisClient.Ping(pingCtx).Err()
			cancelPing()
			if pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; using in-memory sessions\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				sessions = session.NewRedisStore(redisClient, cfg.RedisSessionPrefix, cfg.SessionTTL())
				log.Println("level=info component=bootstrap msg=\"redis session store connected\"")
			}
		}
	}
	if sessions == nil {
		sessions = session.NewMemoryStore(cfg.SessionTTL())
		log.Println("level=info component=bootstrap msg=\"using in-memory session store\"")
	}

	// Event publisher: RabbitMQ when configured and reachable. A broker outage
	// must not prevent the service from booting; feed traffic still flows.
	var publisher events.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) != "" {
		amqpPublisher, pubErr := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.EventExchange)
		if pubErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"rabbitmq publisher unavailable; using fallback\" err=%v", pubErr)
		} else {
			publisher = amqpPublisher
			log.Println("level=info component=bootstrap msg=\"rabbitmq publisher connected\"")
		}
	}
	if publisher == nil {
		publisher = &events.FallbackPublisher{}
	}
	defer publisher.Close()

	// Initialize the client for the core banking API.
	bankClient := corebank.NewClient(cfg.CoreBankAPIBaseURL, cfg.CoreBankTimeout())

	// Initialize the core application service with its dependencies.
	feedService := app.NewService(
		bankClient,
		sessions,
		publisher,
		cfg.FeedOverfetchMultiplier,
		cfg.FeedOverfetchFloor,
	)

	// Any upstream 401 expires the local session once, without retrying the
	// failed request.
	bankClient.SetUnauthorizedHook(feedService.ExpireSession)

	// Initialize the API handlers and router.
	feedHandlers := api.NewFeedHandlers(feedService)
	router := api.FeedRoutes(feedHandlers, cfg.JWTSecret, cfg.AllowedOrigins())

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
