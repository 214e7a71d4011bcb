package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"lexiq-backend/cmd/app/internal/controller"
	"lexiq-backend/internal/assessment"
	"lexiq-backend/internal/config"
	"lexiq-backend/internal/db"
	"lexiq-backend/internal/events"
	"lexiq-backend/internal/mailer"
	"lexiq-backend/internal/repository"
	"lexiq-backend/internal/service"
	"lexiq-backend/pkg/logging"
	"lexiq-backend/pkg/middleware"
	"lexiq-backend/utilities"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	printStartUpBanner()

	cfg, conn, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer db.Close(conn)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := repository.NewStore(conn)

	// Token revocation is shared through redis when configured.
	var blacklist service.TokenBlacklist = service.NewMemoryTokenBlacklist()
	redisURL := cfg.Redis.URL.Resolve()
	if redisURL != "" {
		client, err := service.NewRedisClient(ctx, redisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		blacklist = service.NewRedisTokenBlacklist(client, cfg.Redis.BlacklistKey)
		logger.Info("token blacklist backed by redis")
	} else {
		logger.Warn("REDIS/URL is empty, revoked tokens are kept in memory")
	}

	mail, closeMail, err := newMailer(cfg, redisURL)
	if err != nil {
		return err
	}
	defer closeMail()

	bus := utilities.NewEventBus()
	publisher, err := events.NewAMQPPublisher(cfg.Messaging.AMQPURL.Resolve(), cfg.Messaging.Exchange)
	if err != nil {
		return err
	}
	defer publisher.Close()
	events.Forward(bus, publisher, 5*time.Second)

	testCfg := assessment.FromConfig(cfg.EnglishTest)
	jwtManager := utilities.NewJWTManager(
		cfg.Authentication.AccessSecret.Resolve(),
		cfg.Authentication.RefreshSecret.Resolve(),
		cfg.Authentication.AccessTTL(),
		cfg.Authentication.RefreshTTL(),
	)
	profile := service.NewProfileService(store, mail, cfg.EnglishTest.HistoryLimit, time.Duration(cfg.Mail.CodeTTL)*time.Minute)
	services := controller.Services{
		Auth:      service.NewAuthService(store, jwtManager, blacklist, bus),
		Tests:     service.NewEnglishTestService(store, testCfg, bus),
		Answers:   service.NewAnswerService(store),
		Diagnosis: service.NewDiagnosisService(store, testCfg, bus),
		Profile:   profile,
		Progress:  service.NewProgressService(store),
		Reports:   service.NewReportService(profile),
		Health:    db.NewQueryExecutor(conn).Health,
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.MetricsMiddleware())
	if cfg.RequestDump {
		r.Use(middleware.RequestDumpMiddleware())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	limit := cfg.Authentication.RateLimit
	controller.RegisterRoutes(r, services, jwtManager, blacklist, middleware.NewIPRateLimiter(limit.RPS, limit.Burst))

	addr := fmt.Sprintf("%s:%d", cfg.Context.Host, cfg.Context.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	bus.Wait()
	return nil
}

// newMailer queues verification mails through asynq when redis is
// available and sends them inline otherwise. Without SMTP settings mails
// are only logged.
func newMailer(cfg *config.APIConfig, redisURL string) (mailer.Mailer, func(), error) {
	var sender mailer.Sender = mailer.LogSender{}
	if cfg.Mail.SMTPHost != "" {
		sender = mailer.NewSMTPSender(cfg.Mail)
	} else {
		logger.Warn("MAIL/SMTP_HOST is empty, verification codes are written to the log")
	}

	if redisURL == "" {
		return mailer.NewDirectMailer(sender, cfg.Mail.CodeTTL), func() {}, nil
	}
	jobs, err := mailer.NewJobManager(redisURL, cfg.Mail.Concurrency, cfg.Mail.CodeTTL)
	if err != nil {
		return nil, nil, err
	}
	jobs.RegisterHandlers(sender)
	if err := jobs.Start(); err != nil {
		return nil, nil, fmt.Errorf("start mail worker: %w", err)
	}
	return jobs, jobs.Stop, nil
}
