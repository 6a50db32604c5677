package config

import (
	"fmt"
	"strings"
	"time"

	"research_copilot_go_backend/internal/database"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	MinIO     MinIOConfig
}

type ServerConfig struct {
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string
	MaxUploadBytes int64
	// WSIdleTimeout closes progress streams that see no events.
	WSIdleTimeout time.Duration
}

type GeminiConfig struct {
	APIKey        string
	Model         string
	Timeout       time.Duration
	MaxInputChars int
}

type StoreConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration
	PostgresDSN   string
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	Window        time.Duration
	RedisAddr     string
	RedisPassword string
}

type MinIOConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	Bucket       string
	ShareLinkTTL time.Duration
}

func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// LoadConfig reads .env (when present) and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")
	v.SetDefault("MAX_UPLOAD_MB", 50)
	v.SetDefault("WS_IDLE_TIMEOUT_SECONDS", 300)

	_ = v.BindEnv("GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_AI_STUDIO_API_KEY")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("SUMMARIZER_TIMEOUT_SECONDS", 60)
	v.SetDefault("SUMMARY_MAX_INPUT_CHARS", 12000)

	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "research_copilot")
	v.SetDefault("MONGODB_TIMEOUT_SECONDS", 10)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "research_copilot")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 0.2)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "papers")
	v.SetDefault("SHARE_LINK_TTL_MINUTES", 60)
	return v
}

// FromViper builds and validates a Config from an already-populated viper.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Environment:    v.GetString("APP_ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
			MaxUploadBytes: v.GetInt64("MAX_UPLOAD_MB") * 1024 * 1024,
			WSIdleTimeout:  time.Duration(v.GetInt("WS_IDLE_TIMEOUT_SECONDS")) * time.Second,
		},
		Gemini: GeminiConfig{
			APIKey:        v.GetString("GEMINI_API_KEY"),
			Model:         v.GetString("GEMINI_MODEL"),
			Timeout:       time.Duration(v.GetInt("SUMMARIZER_TIMEOUT_SECONDS")) * time.Second,
			MaxInputChars: v.GetInt("SUMMARY_MAX_INPUT_CHARS"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("STORE_DRIVER")),
			MongoURI:      v.GetString("MONGODB_URI"),
			MongoDatabase: v.GetString("MONGODB_DATABASE"),
			MongoTimeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT_SECONDS")) * time.Second,
			PostgresDSN: database.PostgresDSN(
				v.GetString("DB_HOST"),
				v.GetString("DB_USER"),
				v.GetString("DB_PASSWORD"),
				v.GetString("DB_NAME"),
				v.GetString("DB_PORT"),
			),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			Window:        time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
		},
		MinIO: MinIOConfig{
			Endpoint:     v.GetString("MINIO_ENDPOINT"),
			AccessKey:    v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:    v.GetString("MINIO_SECRET_KEY"),
			UseSSL:       v.GetBool("MINIO_USE_SSL"),
			Bucket:       v.GetString("MINIO_BUCKET"),
			ShareLinkTTL: time.Duration(v.GetInt("SHARE_LINK_TTL_MINUTES")) * time.Minute,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set in the environment")
	}
	switch c.Store.Driver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want mongo, postgres or memory)", c.Store.Driver)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.Gemini.MaxInputChars <= 0 {
		return fmt.Errorf("SUMMARY_MAX_INPUT_CHARS must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST at least 1")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
