package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"skyframe/internal/api/middleware"
	"skyframe/internal/api/routes"
	"skyframe/internal/atproto/gateway"
	"skyframe/internal/atproto/session"
	"skyframe/internal/config"
	"skyframe/internal/core/boards"
	"skyframe/internal/core/feeds"
	"skyframe/internal/core/interactions"
	"skyframe/internal/core/profiles"
	"skyframe/internal/db/postgres"
	"skyframe/internal/db/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := openStore(cfg)
	if err != nil {
		log.Fatal("Failed to open board store:", err)
	}
	defer db.Close()

	boardStore := newBoardStore(cfg, db)

	// Bluesky session, persisted across restarts
	sessionStore, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		log.Fatal("Failed to open session store:", err)
	}
	sessions := session.NewManager(sessionStore, cfg.PDSHost, logger)

	gw := gateway.NewClient(sessions, logger)

	// Core services. The interaction machine doubles as the viewer-state
	// hydrator for feeds and profiles.
	interactionService := interactions.NewService(gw, logger)
	feedService := feeds.NewService(gw, interactionService, logger)
	profileService := profiles.NewService(gw, interactionService, logger)
	boardService := boards.NewService(boardStore, gw, logger)

	cookies := middleware.NewCookieAuth(cfg.CookieSecret)

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	// Rate limiting: 300 requests per minute per actor
	rateLimiter := middleware.NewRateLimiter(300, 1*time.Minute)
	r.Use(rateLimiter.Middleware)

	routes.RegisterSessionRoutes(r, sessions, cookies, logger)
	routes.RegisterFeedRoutes(r, feedService, cookies, logger)
	routes.RegisterInteractionRoutes(r, interactionService, cookies, logger)
	routes.RegisterBoardRoutes(r, boardService, cookies, logger)
	routes.RegisterProfileRoutes(r, profileService, cookies, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	fmt.Printf("SkyFrame starting on %s\n", cfg.ListenAddr)
	fmt.Printf("PDS host: %s\n", cfg.PDSHost)
	fmt.Printf("Board store: %s\n", cfg.StoreDriver)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}

// openStore connects the configured board database and, for postgres,
// runs migrations
func openStore(cfg *config.Config) (*sql.DB, error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, fmt.Errorf("failed to set goose dialect: %w", err)
		}
		if err := goose.Up(db, "internal/db/migrations"); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return db, nil
	default:
		// sqlite creates its schema on open
		return sqlite.Open(cfg.SQLitePath)
	}
}

func newBoardStore(cfg *config.Config, db *sql.DB) boards.Store {
	if cfg.StoreDriver == "postgres" {
		return postgres.NewBoardRepository(db)
	}
	return sqlite.NewBoardRepository(db)
}
