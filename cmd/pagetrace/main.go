package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adapthttp "pagetrace/internal/adapter/http"
	"pagetrace/internal/adapter/postgres"
	"pagetrace/internal/app"
	"pagetrace/internal/config"
	"pagetrace/internal/token"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	manager, err := token.NewManager(cfg.SecretKey, cfg.Algorithm, cfg.TokenTTL())
	if err != nil {
		logger.Fatal("token manager", zap.Error(err))
	}

	authSvc := app.NewAuthService(db)
	tokenSvc := app.NewTokenService(manager, postgres.NewTokenRepo(db), logger)
	statsSvc := app.NewStatsService(db, postgres.NewVisitRepo(db))

	sso, err := ssoConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("sso setup", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: adapthttp.New(authSvc, tokenSvc, statsSvc, sso, logger).Handler(),
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// ssoConfig builds the optional OIDC login configuration. Returns nil when
// SSO is not configured.
func ssoConfig(ctx context.Context, cfg *config.Config) (*adapthttp.OIDC, error) {
	if !cfg.OIDC.Enabled() {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.OIDC.Issuer)
	if err != nil {
		return nil, err
	}

	return &adapthttp.OIDC{
		Provider: provider,
		OAuth2: oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}
