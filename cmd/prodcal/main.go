package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"prodcal/internal/api"
	"prodcal/internal/calendar"
	"prodcal/internal/rangecache"
	"prodcal/internal/store"
	"prodcal/internal/taskservice"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "HTTP bind address")
		dbPath       = flag.String("db", "prodcal.db", "SQLite DB path for local state")
		taskURL      = flag.String("task-service", "", "base URL of the remote task store (empty = local fixture mode)")
		fetchTimeout = flag.Duration("fetch-timeout", 30*time.Second, "task store request timeout")
		actorID      = flag.String("actor", "prodcal", "actor id sent with task updates")
		cacheTTL     = flag.Duration("cache-ttl", rangecache.DefaultTTL, "range cache TTL")
		refreshSpec  = flag.String("catalog-refresh", "@every 15m", "cron spec for workstation/customer list refresh")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=journal_mode(WAL)", *dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()
	db.SetMaxOpenConns(1) // SQLite single writer

	if err := store.EnsureSchema(db); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}

	var (
		source   calendar.TaskSource
		catalogs calendar.CatalogSource
	)
	if *taskURL != "" {
		client := taskservice.NewClient(*taskURL, *fetchTimeout)
		source, catalogs = client, client
		log.Info().Str("url", *taskURL).Msg("using remote task store")
	} else {
		if err := taskservice.EnsureSchema(db); err != nil {
			log.Fatal().Err(err).Msg("ensure fixture schema")
		}
		repo := taskservice.NewLocalRepo(db)
		source, catalogs = repo, repo
		log.Info().Str("db", *dbPath).Msg("using local fixture task store")
	}

	orch := calendar.NewOrchestrator(calendar.Config{
		Source:    source,
		Catalogs:  catalogs,
		Cache:     rangecache.New(rangecache.DefaultSize, *cacheTTL),
		Persister: store.NewRangeStore(db),
		Logger:    log.Logger,
		ActorID:   *actorID,
	})
	if err := orch.Start(context.Background()); err != nil {
		log.Warn().Err(err).Msg("initial load failed, continuing with empty calendar")
	}

	// Periodic catalog refresh so workstation/customer filters track the ERP.
	c := cron.New()
	if _, err := c.AddFunc(*refreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), *fetchTimeout)
		defer cancel()
		if err := orch.ReloadCatalogs(ctx); err != nil {
			log.Error().Err(err).Msg("catalog refresh failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("spec", *refreshSpec).Msg("invalid catalog refresh spec")
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{Addr: *addr, Handler: api.NewServer(orch)}
	go func() {
		log.Info().Str("addr", *addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")
	ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()
	_ = srv.Shutdown(ctxTimeout)
}
