package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voiceagent-platform/internal/audit"
	"voiceagent-platform/internal/auth"
	"voiceagent-platform/internal/campaigns"
	"voiceagent-platform/internal/config"
	"voiceagent-platform/internal/httpapi"
	"voiceagent-platform/internal/pharmacy"
	"voiceagent-platform/internal/reporting"
	"voiceagent-platform/internal/voice"
	"voiceagent-platform/pkg/logger"
	"voiceagent-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	voiceClient, err := voice.NewClient(cfg.Voice)
	if err != nil {
		log.Error("voice client init failed", "err", err)
		os.Exit(1)
	}

	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	campaignRepo := campaigns.NewPostgresRepo(db)
	poller := campaigns.NewPoller(campaignRepo, voiceClient, campaigns.NewRedisPollGuard(rdb), cfg.Voice)

	// Launch responses return before the loop finishes; each spawned poll
	// runs detached from the request with its own logger context.
	spawnPoll := func(workspaceID, batchID string) {
		go func() {
			ctx := logger.With(context.Background(), log.With("batch_id", batchID))
			if _, err := poller.Poll(ctx, workspaceID, batchID); err != nil &&
				!errors.Is(err, campaigns.ErrPollInFlight) {
				log.Error("batch poll failed", "batch_id", batchID, "err", err)
			}
		}()
	}
	campaignSvc := campaigns.NewService(campaignRepo, voiceClient, spawnPoll)

	reportingSvc := reporting.NewService(reporting.NewPostgresRepo(db))

	var bot *pharmacy.Bot
	if cfg.PharmacyBotEnabled() {
		sender, err := pharmacy.NewWhatsAppClient(cfg.WhatsApp)
		if err != nil {
			log.Error("whatsapp client init failed", "err", err)
			os.Exit(1)
		}
		var gen pharmacy.ReplyGenerator
		if cfg.GenAI.APIKey != "" {
			g, err := pharmacy.NewGenAIGenerator(rootCtx, cfg.GenAI)
			if err != nil {
				log.Error("genai init failed", "err", err)
				os.Exit(1)
			}
			gen = g
		}
		bot = pharmacy.NewBot(
			pharmacy.NewPostgresOrderRepo(db),
			pharmacy.NewSessionStore(0),
			sender,
			gen,
		)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	handlers := httpapi.Handlers{
		Auth:      authManager,
		Campaigns: campaignSvc,
		Reporting: reportingSvc,
		Audit:     auditSvc,
	}
	registerRoutes(r, routeDeps{
		cfg:       cfg,
		db:        db,
		authMW:    auth.RequireAccessToken(authManager),
		handlers:  handlers,
		campaigns: campaignSvc,
		audit:     auditSvc,
		bot:       bot,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
