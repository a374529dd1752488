package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kickfinder/backend/internal/config"
	"github.com/kickfinder/backend/internal/handler"
	"github.com/kickfinder/backend/internal/handler/discord"
	catalogModel "github.com/kickfinder/backend/internal/model/catalog"
	catalogService "github.com/kickfinder/backend/internal/service/catalog"
	"github.com/kickfinder/backend/internal/service/conversation"
	"github.com/kickfinder/backend/internal/service/criteria"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store, backend, closeStore := openCatalog(ctx, cfg.Catalog)
	defer closeStore()

	engine := criteria.NewEngine(store, criteria.Limits{
		Low: cfg.Advisor.LowBudgetLimit,
		Mid: cfg.Advisor.MidBudgetLimit,
	}, cfg.Catalog.QueryTimeout)

	conversationSvc := conversation.NewService(engine, conversation.Options{
		IdleTimeout:   cfg.Advisor.IdleTimeout,
		SweepInterval: cfg.Advisor.SweepInterval,
	})
	go conversationSvc.Run(ctx)

	deps := handler.Dependencies{
		Conversation:   conversationSvc,
		Searcher:       engine,
		CatalogBackend: backend,
	}
	if lister, ok := store.(*catalogModel.MemoryStore); ok {
		deps.Catalog = lister
	}

	if cfg.Discord.Enabled() {
		bot, err := discord.New(cfg.Discord.Token, cfg.Discord.CommandPrefix, conversationSvc)
		if err != nil {
			log.Printf("warning: failed to initialize Discord bot: %v", err)
		} else if err := bot.Start(); err != nil {
			log.Printf("warning: failed to start Discord bot: %v", err)
		} else {
			defer bot.Stop()
			deps.Discord = bot
		}
	} else {
		log.Println("DISCORD_BOT_TOKEN not set, skipping Discord transport")
	}

	startServer(ctx, cfg.Server, handler.NewRouter(deps))
}

// openCatalog prefers Postgres and falls back to the seeded in-memory catalog.
func openCatalog(ctx context.Context, cfg config.CatalogConfig) (catalogModel.Store, string, func()) {
	if !cfg.UsePostgres() {
		log.Println("CATALOG_DATABASE_URL not set, using built-in sample catalog")
		return catalogModel.NewMemoryStore(catalogModel.Seed()), "memory", func() {}
	}

	pg, err := catalogService.NewPostgresStore(ctx, catalogService.Config{
		URL:          cfg.DatabaseURL,
		Table:        cfg.Table,
		QueryTimeout: cfg.QueryTimeout,
		MaxConns:     cfg.MaxConns,
	})
	if err != nil {
		log.Fatalf("failed to open catalog database: %v", err)
	}
	return pg, "postgres", pg.Close
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("sneaker advisor listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
