package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VECTOR_DIMENSION", "")
	t.Setenv("SNOOZE_SWEEP_INTERVAL", "")

	cfg := Load()

	assert.Equal(t, "email_embeddings", cfg.VectorCollection)
	assert.Equal(t, 768, cfg.VectorDimension)
	assert.Equal(t, 0.5, cfg.VectorScoreThreshold)
	assert.Equal(t, time.Minute, cfg.SnoozeSweepInterval)
	assert.Equal(t, 100, cfg.SnoozeBatchSize)
}

func TestLoadOverrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(t *testing.T, cfg *Config)
	}{
		{"int", "BOARD_PAGE_SIZE", "50", func(t *testing.T, cfg *Config) { assert.Equal(t, 50, cfg.BoardPageSize) }},
		{"bad int keeps default", "SYNC_CONCURRENCY", "lots", func(t *testing.T, cfg *Config) { assert.Equal(t, 5, cfg.SyncConcurrency) }},
		{"duration", "LABEL_CACHE_TTL", "30s", func(t *testing.T, cfg *Config) { assert.Equal(t, 30*time.Second, cfg.LabelCacheTTL) }},
		{"float", "VECTOR_SCORE_THRESHOLD", "0.75", func(t *testing.T, cfg *Config) { assert.Equal(t, 0.75, cfg.VectorScoreThreshold) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			tt.check(t, Load())
		})
	}
}
