package main // Entry point package

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/cabinbuddy/cabin-buddy/internal/config"
	"github.com/cabinbuddy/cabin-buddy/internal/database"
	"github.com/cabinbuddy/cabin-buddy/internal/handler"
	"github.com/cabinbuddy/cabin-buddy/internal/middleware"
	"github.com/cabinbuddy/cabin-buddy/internal/notify"
	"github.com/cabinbuddy/cabin-buddy/internal/queue"
	"github.com/cabinbuddy/cabin-buddy/internal/repository"
	"github.com/cabinbuddy/cabin-buddy/internal/router"
	"github.com/cabinbuddy/cabin-buddy/internal/snapshot"
	"github.com/cabinbuddy/cabin-buddy/internal/storage"
	"github.com/cabinbuddy/cabin-buddy/pkg/logging"
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win
	logging.Setup()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Repositories share the single connection pool.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	orgRepo := repository.NewOrganizationRepo(db)
	rsvRepo := repository.NewReservationRepo(db)
	payRepo := repository.NewPaymentRepo(db)
	splitRepo := repository.NewPaymentSplitRepo(db)
	snapRepo := repository.NewSnapshotRepo(db)
	periodRepo := repository.NewSelectionPeriodRepo(db)

	// Snapshot documents go to OSS when an endpoint is configured,
	// otherwise to a local directory.
	var store storage.BlobStore
	if cfg.OSSEndpoint != "" {
		store, err = storage.NewOSSStore(cfg.OSSEndpoint, cfg.OSSKeyID, cfg.OSSKeySecret, cfg.OSSBucket)
	} else {
		store, err = storage.NewFileStore(cfg.BlobDir)
	}
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	snapSvc := &snapshot.Service{
		Orgs:         orgRepo,
		Reservations: rsvRepo,
		Payments:     payRepo,
		Splits:       splitRepo,
		Snapshots:    snapRepo,
		Restorer:     repository.NewRestoreRepo(db),
		Store:        store,
	}

	// Background sweep creates automatic snapshots and prunes old ones.
	go snapSvc.Run(context.Background(), time.Duration(cfg.SnapshotSweepMin)*time.Minute)

	// The split consumer mails each affected family group.  Without an
	// AMQP URL split rows still commit; only notification is skipped.
	if cfg.AMQPURL != "" {
		var mailer notify.Mailer = &notify.LogMailer{}
		if cfg.SMTPHost != "" {
			mailer = &notify.SMTPMailer{
				Host: cfg.SMTPHost, Port: cfg.SMTPPort,
				User: cfg.SMTPUser, Pass: cfg.SMTPPass, From: cfg.MailFrom,
			}
		}
		consumer := &queue.SplitConsumer{URL: cfg.AMQPURL, Orgs: orgRepo, Splits: splitRepo, Mailer: mailer}
		go func() {
			if err := consumer.Start(); err != nil {
				slog.Error("split consumer stopped", "error", err)
			}
		}()
	}

	// Redis backs the response cache and rate limiter; both degrade to
	// no-ops when the client is nil.
	rdb := config.NewRedisClient()
	var cacheMW, rateMW echo.MiddlewareFunc
	if rdb != nil {
		if cacheCfg := config.LoadCacheConfig(); cacheCfg.Enabled {
			cacheMW = middleware.NewRedisCache(cacheCfg, rdb)
		}
		if rlCfg := config.LoadRateLimitConfig(); rlCfg.Enabled {
			rateMW = middleware.NewTokenBucket(rlCfg, rdb)
		}
	}

	e := echo.New()
	e.Use(echomw.Logger(), echomw.Recover())
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterOrgs(e, router.OrgDeps{
		JWTSecret:  cfg.JWTSecret,
		Orgs:       handler.NewOrganizationHandler(orgRepo, userRepo),
		Rsv:        handler.NewReservationHandler(rsvRepo, payRepo),
		Occ:        handler.NewOccupancyHandler(orgRepo, rsvRepo, payRepo, splitRepo),
		Pay:        handler.NewPaymentHandler(payRepo),
		Split:      handler.NewSplitHandler(db, orgRepo, rsvRepo, payRepo, splitRepo),
		Season:     handler.NewSeasonHandler(orgRepo, rsvRepo, payRepo),
		Snap:       handler.NewSnapshotHandler(snapRepo, snapSvc),
		Rot:        handler.NewRotationHandler(periodRepo),
		Membership: middleware.OrgMembership(orgRepo),
		Cache:      cacheMW,
		RateLimit:  rateMW,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
