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

	"admissions/internal/formschema"
	"admissions/internal/metrics"
	"admissions/internal/server"
	"admissions/internal/session"
	"admissions/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cCtx)
	if err != nil {
		return err
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	cognitoClient := cognitoidentityprovider.NewFromConfig(awsConfig)

	be, closeBackend, err := buildBackend(ctx, config, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	drafts, err := buildDraftStore(ctx, config)
	if err != nil {
		return err
	}

	jwkCache, err := jwk.NewCache(context.Background(), httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initilaize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", config.CognitoIssuerURL)

	err = jwkCache.Register(context.Background(), jwksURL)
	if err != nil {
		return fmt.Errorf("failed to register cognito jwk with cache: %w", err)
	}

	var m *metrics.Metrics
	if config.MetricsEnabled {
		m = metrics.New()
	}

	srv, err := server.New(
		config,
		logger,
		cognitoClient,
		server.NewJWKSVerifier(jwkCache, jwksURL),
		be,
		drafts,
		formschema.DefaultCatalog(),
		m,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).
			WithField("backend", config.Backend).
			WithField("draft_store", config.DraftStore).
			Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func buildDraftStore(ctx context.Context, config *types.Config) (session.DraftStore, error) {
	ttl := time.Duration(config.DraftTTLSec) * time.Second

	if config.DraftStore == types.DraftStoreRedis {
		client, err := session.ConnectRedis(ctx, config.RedisURL)
		if err != nil {
			return nil, err
		}
		return session.NewRedisStore(client, ttl), nil
	}

	return session.NewMemoryStore(config.DraftCacheSize, ttl), nil
}
