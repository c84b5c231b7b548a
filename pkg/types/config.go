package types

import "fmt"

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	DatabaseURL      string `envconfig:"DATABASE_URL"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`

	// Backend selects where forms, institutions and applications live:
	// "postgres" talks to the database directly, "rest" calls the admissions API.
	Backend       string `envconfig:"BACKEND" default:"postgres"`
	APIBaseURL    string `envconfig:"API_BASE_URL"`
	APITimeoutSec uint   `envconfig:"API_TIMEOUT_SEC" default:"20"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	S3BucketName string `envconfig:"S3_BUCKET_NAME" default:"application-documents"`
	MaxUploadMB  int64  `envconfig:"MAX_UPLOAD_MB" default:"10"`

	// Drafts hold builder and wizard state between requests.
	DraftStore     string `envconfig:"DRAFT_STORE" default:"memory"`
	RedisURL       string `envconfig:"REDIS_URL"`
	DraftTTLSec    int    `envconfig:"DRAFT_TTL_SEC" default:"86400"`
	DraftCacheSize int    `envconfig:"DRAFT_CACHE_SIZE" default:"1024"`

	AcademicYear       string `envconfig:"ACADEMIC_YEAR" default:"2025-2026"`
	CheckboxAccumulate bool   `envconfig:"CHECKBOX_ACCUMULATE" default:"false"`
	MetricsEnabled     bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

const (
	BackendPostgres = "postgres"
	BackendREST     = "rest"

	DraftStoreMemory = "memory"
	DraftStoreRedis  = "redis"
)

// Validate checks that the settings the chosen backend and draft store need are present.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("set DATABASE_URL")
		}
	case BackendREST:
		if c.APIBaseURL == "" {
			return fmt.Errorf("set API_BASE_URL")
		}
	default:
		return fmt.Errorf("unknown BACKEND %q, use %s or %s", c.Backend, BackendPostgres, BackendREST)
	}

	switch c.DraftStore {
	case DraftStoreMemory:
	case DraftStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("set REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown DRAFT_STORE %q, use %s or %s", c.DraftStore, DraftStoreMemory, DraftStoreRedis)
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	return nil
}
