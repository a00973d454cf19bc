package app

import (
	"time"

	"github.com/yungbote/relocation-intake/internal/data/db"
	"github.com/yungbote/relocation-intake/internal/domain/intake"
	"github.com/yungbote/relocation-intake/internal/jobs/worker"
	"github.com/yungbote/relocation-intake/internal/observability"
	"github.com/yungbote/relocation-intake/internal/pkg/envutil"
	"github.com/yungbote/relocation-intake/internal/platform/openai"
	"github.com/yungbote/relocation-intake/internal/realtime/bus"
)

const serviceName = "relocation-intake"

type Config struct {
	Port        string
	LogMode     string
	CORSOrigins []string

	DB          db.Config
	MaxRounds   int
	Worker      worker.Config
	PromptsFile string
	Redis       bus.RedisConfig
	OpenAI      openai.Config
	Otel        observability.OtelConfig
}

// LoadConfig reads the environment once. Unset values take the defaults below.
func LoadConfig() Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		CORSOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
		DB: db.Config{
			Driver: envutil.String("DB_DRIVER", db.DriverPostgres),
			Postgres: db.PostgresConfig{
				Host:     envutil.String("POSTGRES_HOST", "localhost"),
				Port:     envutil.String("POSTGRES_PORT", "5432"),
				User:     envutil.String("POSTGRES_USER", "postgres"),
				Password: envutil.String("POSTGRES_PASSWORD", ""),
				Name:     envutil.String("POSTGRES_NAME", "relocation_intake"),
				SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			},
			SQLitePath: envutil.String("SQLITE_PATH", "intake.db"),
		},
		MaxRounds: envutil.Int("INTAKE_MAX_ROUNDS", intake.DefaultMaxRounds),
		Worker: worker.Config{
			Concurrency:  envutil.Int("WORKER_CONCURRENCY", 2),
			PollInterval: envutil.Duration("WORKER_POLL_INTERVAL", time.Second),
			StaleAfter:   envutil.Duration("WORKER_STALE_AFTER", 10*time.Minute),
			MaxAttempts:  1,
		},
		PromptsFile: envutil.String("PROMPTS_FILE", ""),
		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", bus.DefaultChannelPrefix),
		},
		OpenAI: openai.Config{
			APIKey:       envutil.String("OPENAI_API_KEY", ""),
			BaseURL:      envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
			Model:        envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout:      time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second,
			MaxRetries:   envutil.Int("OPENAI_MAX_RETRIES", 2),
			RetryBackoff: 500 * time.Millisecond,
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", serviceName),
			Environment: envutil.String("LOG_MODE", "development"),
			Version:     envutil.String("SERVICE_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1),
		},
	}
	if t := envutil.Float("OPENAI_TEMPERATURE", -1); t >= 0 {
		cfg.OpenAI.Temperature = &t
	}
	return cfg
}
