package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// InferenceConfig covers the hosted inference API used for emotion
// classification and text-to-image generation. The token is only ever
// read from the environment.
type InferenceConfig struct {
	BaseURL      string
	Token        string
	EmotionModel string
	ImageModel   string
	Timeout      time.Duration
}

// VideoConfig points at the gradio space that turns a still image into
// a short video clip.
type VideoConfig struct {
	BaseURL  string
	Endpoint string
	Timeout  time.Duration
}

type AssetsConfig struct {
	Dir          string
	PublicPath   string
	RetentionTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
	Stream   string
	Group    string
	Consumer string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Inference        InferenceConfig
	Video            VideoConfig
	Assets           AssetsConfig
	Redis            RedisConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("DREAMREEL")
	v.AutomaticEnv()

	// The original deployment exports HF_TOKEN, keep honoring it.
	_ = v.BindEnv("inference.token", "DREAMREEL_INFERENCE_TOKEN", "HF_TOKEN")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "30s")
	v.SetDefault("http.writetimeout", "10m")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("inference.baseurl", "https://api-inference.huggingface.co")
	v.SetDefault("inference.token", "")
	v.SetDefault("inference.emotionmodel", "j-hartmann/emotion-english-distilroberta-base")
	v.SetDefault("inference.imagemodel", "stabilityai/stable-diffusion-xl-base-1.0")
	v.SetDefault("inference.timeout", "120s")

	v.SetDefault("video.baseurl", "https://multimodalart-stable-video-diffusion.hf.space")
	v.SetDefault("video.endpoint", "video")
	v.SetDefault("video.timeout", "10m")

	v.SetDefault("assets.dir", "static/generated")
	v.SetDefault("assets.publicpath", "/static/generated")
	v.SetDefault("assets.retentionttl", "24h")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.stream", "assets:cleanup")
	v.SetDefault("redis.group", "cleanup-workers")
	v.SetDefault("redis.consumer", "worker-1")
}
