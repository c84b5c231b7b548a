package main

import (
	"context"
	"fmt"
	"time"

	"admissions/internal/apiclient"
	"admissions/internal/backend"
	"admissions/internal/db"
	"admissions/internal/storage"
	"admissions/internal/store"
	"admissions/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

func loadConfig() (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.ServerPort == 0 {
		c.ServerPort = 8080
	}

	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = 10
	}

	if c.WriteTimeoutSec == 0 {
		c.WriteTimeoutSec = 15
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}

// buildBackend wires the configured backend. The returned close func releases the
// database pool when there is one.
func buildBackend(ctx context.Context, cfg *types.Config, logger *logrus.Logger) (*backend.Backend, func(), error) {
	if cfg.Backend == types.BackendREST {
		client := apiclient.New(cfg.APIBaseURL, time.Duration(cfg.APITimeoutSec)*time.Second, logger)
		return &backend.Backend{Forms: client, Institutions: client, Applications: client}, func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	s3Client := s3.NewFromConfig(awsConfig)
	files := storage.NewS3Storage(s3Client, s3.NewPresignClient(s3Client), cfg.S3BucketName)

	be := &backend.Backend{
		Forms:        store.NewFormsRepository(pool),
		Institutions: store.NewInstitutionRepository(pool),
		Applications: store.NewApplicationStore(logger, store.NewApplicationRepository(pool), files, storage.ApplicationKey),
	}

	return be, pool.Close, nil
}
