package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/config"
	"github.com/cgtm/cgtm_backend/internal/cache"
	"github.com/cgtm/cgtm_backend/internal/identity"
	"github.com/cgtm/cgtm_backend/internal/pkg/logger"
	"github.com/cgtm/cgtm_backend/internal/poller"
	"github.com/cgtm/cgtm_backend/internal/recordstore"
	"github.com/cgtm/cgtm_backend/internal/reminder"
	"github.com/cgtm/cgtm_backend/internal/routes"
	"github.com/cgtm/cgtm_backend/internal/shiftengine"
	"github.com/cgtm/cgtm_backend/internal/store"
	"github.com/cgtm/cgtm_backend/internal/ws"
)

func main() {
	cfg := config.NewConfig()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "cgtm_backend")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Record store: remote Firebase when configured, in-memory otherwise.
	var records recordstore.Client
	if cfg.FirebaseDatabaseURL != "" {
		records = recordstore.NewFirebase(cfg.FirebaseDatabaseURL, cfg.FirebaseAuthToken, log)
		log.Info("Using Firebase record store", zap.String("url", cfg.FirebaseDatabaseURL))
	} else {
		records = recordstore.NewMemory()
		log.Warn("FIREBASE_DATABASE_URL not set, using in-memory record store")
	}

	redisClient := config.NewRedisClient(cfg)

	var snapshotCache cache.Cache
	if cfg.CacheBackend == "redis" {
		snapshotCache = cache.NewRedis(redisClient, log)
		log.Info("Using Redis snapshot cache", zap.String("addr", cfg.RedisAddr))
	} else {
		snapshotCache = cache.NewMemory()
	}

	st := store.NewClient(records, snapshotCache, log)
	// First read seeds the default users on a fresh deployment.
	st.ListUsers(ctx)

	engine := shiftengine.NewEngine(st, log)
	identityClient := identity.NewClient(cfg.IdentityAPIKey, log)
	hub := ws.NewHub(log)

	var gateway reminder.Gateway
	if cfg.FirebaseProjectID != "" && cfg.FirebaseServiceAccount != "" {
		fcmGateway, err := reminder.NewFCMGateway(ctx, cfg.FirebaseProjectID, cfg.FirebaseServiceAccount, log)
		if err != nil {
			log.Error("FCM gateway init failed, reminders disabled", zap.Error(err))
		} else {
			gateway = fcmGateway
		}
	} else {
		log.Warn("FCM credentials not set, reminders disabled")
	}
	reminders := reminder.NewService(st, records, gateway, cfg.ReminderLead, log)

	// Pseudo-realtime sync: refresh the snapshot on a short interval.
	syncPoller := poller.New(cfg.PollInterval, func(ctx context.Context) {
		st.ListUsers(ctx)
		st.ListShifts(ctx)
		st.ListScheduledShifts(ctx)
	}, log)
	syncPoller.Start(ctx)
	defer syncPoller.Stop()

	if gateway != nil {
		go reminderScanLoop(ctx, reminders, cfg.ReminderScanEvery, log)
	}

	router := routes.Setup(cfg, routes.Deps{
		Store:     st,
		Engine:    engine,
		Reminders: reminders,
		Identity:  identityClient,
		Cache:     snapshotCache,
		Hub:       hub,
		Redis:     redisClient,
		Logger:    log,
	})

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server failed", zap.Error(err))
	}
	log.Info("Server stopped")
}

// reminderScanLoop runs the reminder sweep on a fixed interval until the
// context is cancelled.
func reminderScanLoop(ctx context.Context, service *reminder.Service, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := service.ScanAndSend(ctx)
			if err != nil {
				log.Error("Reminder scan failed", zap.Error(err))
				continue
			}
			if report.Sent > 0 {
				log.Info("Reminder scan complete",
					zap.Int("scanned", report.Scanned),
					zap.Int("sent", report.Sent),
				)
			}
		}
	}
}
