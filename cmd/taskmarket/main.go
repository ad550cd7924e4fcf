package main

import (
	"fmt"
	"os"
	"time"

	"github.com/nurpe/taskmarket/internal/auth"
	"github.com/nurpe/taskmarket/internal/config"
	"github.com/nurpe/taskmarket/internal/db"
	"github.com/nurpe/taskmarket/internal/excel"
	httphandler "github.com/nurpe/taskmarket/internal/http"
	"github.com/nurpe/taskmarket/internal/http/middleware"
	"github.com/nurpe/taskmarket/internal/logger"
	"github.com/nurpe/taskmarket/internal/notify"
	"github.com/nurpe/taskmarket/internal/pdf"
	"github.com/nurpe/taskmarket/internal/profile"
	"github.com/nurpe/taskmarket/internal/repository"
	"github.com/nurpe/taskmarket/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	taskRepo := repository.NewTaskRepository(database)
	bidRepo := repository.NewBidRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	disputeRepo := repository.NewDisputeRepository(database)
	reviewRepo := repository.NewReviewRepository(database)

	var broadcaster service.Broadcaster
	if cfg.NATS.URL != "" {
		natsBroadcaster, err := notify.NewBroadcaster(cfg.NATS.URL, cfg.NATS.Subject, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect nats")
		}
		defer natsBroadcaster.Close()
		broadcaster = natsBroadcaster
	}

	var profiles service.ProfileStore = profile.Static{}
	if cfg.Profile.BaseURL != "" {
		timeout, err := time.ParseDuration(cfg.Profile.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid PROFILE_TIMEOUT")
		}
		profiles = profile.NewClient(cfg.Profile.BaseURL, timeout, log)
	}

	notificationService := service.NewNotificationService(notificationRepo, broadcaster, log)
	statementGenerator := pdf.NewGenerator()
	reportGenerator := excel.NewGenerator()

	taskService := service.NewTaskService(taskRepo, bidRepo, paymentRepo, notificationService, statementGenerator, reportGenerator, log)
	bidService := service.NewBidService(taskRepo, bidRepo, profiles, notificationService, log)
	disputePolicy := service.RolePolicy{AllowAny: cfg.Disputes.AllowAnyResolver}
	disputeService := service.NewDisputeService(disputeRepo, paymentRepo, taskRepo, notificationService, disputePolicy, log)
	reviewService := service.NewReviewService(reviewRepo, taskRepo, notificationService, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(taskService, bidService, notificationService, disputeService, reviewService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting task marketplace service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
