package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend:     BackendPostgres,
			DatabaseURL: "postgres://localhost/admissions",
			DraftStore:  DraftStoreMemory,
			MaxUploadMB: 10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "postgres", mutate: func(*Config) {}},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "rest", mutate: func(c *Config) { c.Backend = BackendREST; c.DatabaseURL = ""; c.APIBaseURL = "https://api.example.com" }},
		{name: "rest without url", mutate: func(c *Config) { c.Backend = BackendREST }, wantErr: "API_BASE_URL"},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "mongo" }, wantErr: "unknown BACKEND"},
		{name: "redis without url", mutate: func(c *Config) { c.DraftStore = DraftStoreRedis }, wantErr: "REDIS_URL"},
		{name: "redis", mutate: func(c *Config) { c.DraftStore = DraftStoreRedis; c.RedisURL = "redis://localhost:6379/0" }},
		{name: "unknown draft store", mutate: func(c *Config) { c.DraftStore = "disk" }, wantErr: "unknown DRAFT_STORE"},
		{name: "no upload size", mutate: func(c *Config) { c.MaxUploadMB = 0 }, wantErr: "MAX_UPLOAD_MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
