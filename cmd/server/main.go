package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatstream "chatstream-backend"
	"chatstream-backend/internal/api"
	"chatstream-backend/internal/config"
	"chatstream-backend/internal/handlers"
	"chatstream-backend/internal/integrations/cohere"
	"chatstream-backend/internal/integrations/serpapi"
	"chatstream-backend/internal/services"
	"chatstream-backend/internal/store/postgres"
)

func main() {
	log.Println("Starting ChatStream Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Apply Migrations and Initialize Database Connection Pool
	migrations, err := fs.Sub(chatstream.MigrationsFS, "migrations")
	if err != nil {
		log.Fatalf("FATAL: Failed to open embedded migrations: %v", err)
	}
	if err := postgres.RunMigrations(cfg.DatabaseURL, migrations); err != nil {
		log.Fatalf("FATAL: Failed to run database migrations: %v", err)
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	dbpool, err := postgres.NewPool(dbCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Unable to connect to database: %v", err)
	}
	defer dbpool.Close()
	log.Println("Database connection pool established and pinged successfully.")

	// 3. Initialize Dependencies (Store, Integrations, Services, Handlers)
	pgStore := postgres.NewPostgresStore(dbpool)
	log.Println("Postgres store initialized.")

	llmClient := cohere.NewClient(cohere.Config{
		APIKey:      cfg.CohereAPIKey,
		APIURL:      cfg.CohereAPIURL,
		Model:       cfg.CohereModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
	log.Println("Cohere client initialized.")

	searchClient := serpapi.NewClient(cfg.SerpAPIKey, cfg.SerpAPIURL, cfg.SearchResultCount)
	log.Println("SerpAPI client initialized.")

	authService := services.NewAuthService(pgStore, cfg)
	log.Println("AuthService initialized.")
	chatService := services.NewChatService(pgStore, llmClient, searchClient, cfg.SearchCutoffYear)
	log.Println("ChatService initialized.")
	sessionService := services.NewSessionService(pgStore)
	log.Println("SessionService initialized.")

	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	log.Println("Handlers initialized.")

	// 4. Setup Router & Inject Dependencies
	routerDeps := api.RouterDependencies{
		AuthHandler:    authHandler,
		ChatHandler:    chatHandler,
		SessionHandler: sessionHandler,
		Config:         cfg,
	}
	router := api.NewRouter(routerDeps)
	log.Println("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// WriteTimeout stays zero: chat responses stream for as long as the
		// model generates, and a write deadline would cut them off.
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}
