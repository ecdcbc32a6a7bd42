package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	httpctx "github.com/dtroode/alumni-server/internal/api/http/context"
	"github.com/dtroode/alumni-server/internal/api/http/middleware"
	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/api/http/router"
	httpserver "github.com/dtroode/alumni-server/internal/api/http/server"
	"github.com/dtroode/alumni-server/internal/config"
	"github.com/dtroode/alumni-server/internal/encryption"
	"github.com/dtroode/alumni-server/internal/identity"
	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/mail"
	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/password"
	"github.com/dtroode/alumni-server/internal/ratelimit"
	"github.com/dtroode/alumni-server/internal/repository/postgres"
	"github.com/dtroode/alumni-server/internal/server"
	"github.com/dtroode/alumni-server/internal/service"
	"github.com/dtroode/alumni-server/internal/token"
)

const (
	shutdownTimeout    = 10 * time.Second
	redisAttempts      = 5
	redisRetryInterval = time.Second
	redisKeyPrefix     = "ratelimit"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServer(cmd.Context(), cfg, logger.New(cfg.LogLevel))
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *logger.Logger) error {
	authCfg := cfg.AuthConfig()

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN, cfg.Database.Migrate, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer db.Close()

	cipher, err := encryption.New(authCfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize cipher: %w", err)
	}

	verifier, err := identity.NewGoogleVerifier(ctx, authCfg.GoogleClientID)
	if err != nil {
		return fmt.Errorf("failed to initialize google verifier: %w", err)
	}

	sender, err := newMailSender(cfg, logger)
	if err != nil {
		return err
	}

	general, auth, closeLimiters, err := newLimiters(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiters()

	var sealer model.TokenSealer
	if authCfg.EncryptSessionTokens {
		sealer = cipher
	}
	var decrypter middleware.FieldDecrypter
	if cfg.Encryption.DecryptRequests {
		decrypter = cipher
	}

	userRepo := postgres.NewUserRepository(db.DB)
	profileRepo := postgres.NewProfileRepository(db.DB)
	tokenManager := token.NewJWT(token.Options{
		AccessSecret:  authCfg.AccessSecret,
		RefreshSecret: authCfg.RefreshSecret,
		AccessTTL:     authCfg.AccessTTL,
		RefreshTTL:    authCfg.RefreshTTL,
	})

	hasher := password.NewHasher(authCfg.BcryptCost)
	tokenService := service.NewTokenService(tokenManager, sealer, logger)
	authService := service.NewAuth(
		authCfg,
		userRepo,
		hasher,
		tokenService,
		verifier,
		mail.NewNotifier(sender, cfg.FrontendURL),
		logger,
	)
	userService := service.NewUsers(userRepo, profileRepo, hasher, logger)

	r := router.New(
		authService,
		userService,
		tokenService,
		identity.NewAuthURLBuilder(authCfg.GoogleClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL),
		db,
		httpctx.NewManager(),
		router.Options{
			FrontendURL:    cfg.FrontendURL,
			Cookies:        response.CookiePolicy{Secure: cfg.HTTP.SecureCookies, AccessTTL: authCfg.AccessTTL, RefreshTTL: authCfg.RefreshTTL},
			RequestTimeout: cfg.HTTP.RequestTimeout,
			GeneralLimiter: general,
			AuthLimiter:    auth,
			Decrypter:      decrypter,
		},
		logger,
	)
	httpServer := httpserver.NewHTTPServer(r.Register(), cfg.Address())

	var certFile, keyFile string
	if cfg.HTTP.EnableHTTPS {
		certFile, keyFile = cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName
	}
	sl, err := server.NewSecurityLayer(certFile, keyFile)
	if err != nil {
		return err
	}

	logAppVersion()
	return serve(ctx, httpServer, sl, logger, cfg.HTTP.EnableHTTPS)
}

// serve runs s until ctx is done or s fails to start, then drains it.
func serve(ctx context.Context, s model.Server, sl model.SecurityLayer, logger *logger.Logger, https bool) error {
	startErr := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", https)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			startErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received interruption signal, shutting down")
	case err := <-startErr:
		runErr = fmt.Errorf("server stopped: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", s.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
	return runErr
}

func newMailSender(cfg *config.Config, logger *logger.Logger) (mail.Sender, error) {
	if cfg.Postmark.ServerToken == "" {
		logger.Warn("POSTMARK_SERVER_TOKEN not set, emails are logged instead of sent")
		return mail.NewLogSender(logger), nil
	}
	sender, err := mail.NewPostmarkSender(mail.PostmarkConfig{
		ServerToken:  cfg.Postmark.ServerToken,
		AccountToken: cfg.Postmark.AccountToken,
		From:         cfg.Mail.From,
		FromName:     cfg.Mail.FromName,
		Support:      cfg.Mail.Support,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mail sender: %w", err)
	}
	return sender, nil
}

// newLimiters returns the general and auth limiters and a func releasing
// their backend.
func newLimiters(ctx context.Context, cfg *config.Config, logger *logger.Logger) (ratelimit.Limiter, ratelimit.Limiter, func(), error) {
	general := ratelimit.Policy{Limit: cfg.RateLimit.General, Window: cfg.RateLimit.Window}
	auth := ratelimit.Policy{Limit: cfg.RateLimit.Auth, Window: cfg.RateLimit.Window}

	if cfg.Redis.URL == "" {
		return ratelimit.NewMemoryLimiter(general), ratelimit.NewMemoryLimiter(auth), func() {}, nil
	}

	client, err := ratelimit.Connect(ctx, cfg.Redis.URL, redisAttempts, redisRetryInterval)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Rate limits shared through redis")
	return ratelimit.NewRedisLimiter(client, general, redisKeyPrefix),
		ratelimit.NewRedisLimiter(client, auth, redisKeyPrefix),
		func() { _ = client.Close() },
		nil
}
