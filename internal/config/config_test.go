package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)

	assert.Equal(t, "https://api-inference.huggingface.co", cfg.Inference.BaseURL)
	assert.Equal(t, "j-hartmann/emotion-english-distilroberta-base", cfg.Inference.EmotionModel)
	assert.Equal(t, "stabilityai/stable-diffusion-xl-base-1.0", cfg.Inference.ImageModel)

	assert.Equal(t, "video", cfg.Video.Endpoint)
	assert.Equal(t, 10*time.Minute, cfg.Video.Timeout)

	assert.Equal(t, "static/generated", cfg.Assets.Dir)
	assert.Equal(t, "/static/generated", cfg.Assets.PublicPath)
	assert.Equal(t, 24*time.Hour, cfg.Assets.RetentionTTL)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "assets:cleanup", cfg.Redis.Stream)
}

func TestLoad_TokenFromEnv(t *testing.T) {
	t.Setenv("HF_TOKEN", "hf_secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hf_secret", cfg.Inference.Token)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DREAMREEL_ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}
