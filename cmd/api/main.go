package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"settleline.app/internal/adapters"
	"settleline.app/internal/cache"
	"settleline.app/internal/config"
	"settleline.app/internal/httpapi"
	"settleline.app/internal/notify"
	"settleline.app/internal/obs"
	"settleline.app/internal/settle"
	"settleline.app/internal/store/pg"
	"settleline.app/internal/stream"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("SETTLE_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Version != "" && cfg.Version != "dev" {
		version = cfg.Version
	}

	// Persistent store: PostgreSQL when a DSN is set, in-memory otherwise
	// (local development and demos).
	var (
		store   settle.Store
		probe   httpapi.ReadyProbe
		pgStore *pg.Store
	)
	if cfg.PGDSN != "" {
		pgStore, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Println("SETTLE_PG_DSN not set, using in-memory store")
		store = settle.NewInMemory()
	}

	// Transient state: Redis when configured, in-process otherwise.
	var msgCache cache.Store
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		cancel()
		msgCache = redisCache
	} else {
		msgCache = cache.NewMemory()
	}

	vendors := &adapters.Set{
		VOI:      adapters.NewVOI(cfg.VOIBaseURL, cfg.VOIAPIKey),
		SMS:      adapters.NewSMS(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSSender),
		Email:    adapters.NewEmail(cfg.EmailBaseURL, cfg.EmailAPIKey, cfg.EmailFrom),
		Map:      adapters.NewMap(cfg.MapBaseURL, cfg.MapAPIKey, msgCache),
		Practice: adapters.NewPractice(cfg.PracticeBaseURL, cfg.PracticeAPIKey),
		Feed:     adapters.NewFeed(cfg.FeedBaseURL, cfg.FeedAPIKey),
	}
	dispatcher := notify.NewDispatcher(store, vendors.Email, vendors.SMS)

	api := httpapi.New(probe, version, store, msgCache, stream.New(), dispatcher, vendors)
	api.SetRateLimits(cfg.RateBurst, cfg.RatePerSec)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting settleline-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
