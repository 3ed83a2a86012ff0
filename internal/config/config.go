package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string `validate:"required,numeric"`
	Env  string `validate:"oneof=development staging production test"`

	// Database
	DatabaseURL   string `validate:"required"`
	MigrationsDir string

	// Redis
	RedisURL string `validate:"required"`

	// JWT
	JWTSecret string `validate:"required,min=16"`

	// Summaries
	WorkerCount        int           `validate:"min=1,max=64"`
	SummaryCacheTTL    time.Duration `validate:"min=0"`
	RateLimitPerMinute int           `validate:"min=1"`

	// Voice
	VoiceLanguage      string        `validate:"required"`
	VoiceRate          float64       `validate:"gt=0,lte=10"`
	VoiceIntroDelay    time.Duration `validate:"min=0"`
	VoiceNavDelay      time.Duration `validate:"min=0"`
	VoiceFeedbackDelay time.Duration `validate:"min=0"`
	VoiceListenDelay   time.Duration `validate:"min=0"`
	VoiceRestartDelay  time.Duration `validate:"min=0"`

	// Frontend
	FrontendURL string `validate:"required,url"`
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		DatabaseURL:        mustGetEnv("DATABASE_URL"),
		MigrationsDir:      getEnvOrDefault("MIGRATIONS_DIR", "./migrations"),
		RedisURL:           mustGetEnv("REDIS_URL"),
		JWTSecret:          mustGetEnv("JWT_SECRET"),
		WorkerCount:        getEnvAsIntOrDefault("WORKER_COUNT", 4),
		SummaryCacheTTL:    getEnvAsDurationOrDefault("SUMMARY_CACHE_TTL", 24*time.Hour),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),
		VoiceLanguage:      getEnvOrDefault("VOICE_LANGUAGE", "en-US"),
		VoiceRate:          getEnvAsFloatOrDefault("VOICE_RATE", 0.9),
		VoiceIntroDelay:    getEnvAsDurationOrDefault("VOICE_INTRO_DELAY", 2*time.Second),
		VoiceNavDelay:      getEnvAsDurationOrDefault("VOICE_NAV_DELAY", time.Second),
		VoiceFeedbackDelay: getEnvAsDurationOrDefault("VOICE_FEEDBACK_DELAY", 1500*time.Millisecond),
		VoiceListenDelay:   getEnvAsDurationOrDefault("VOICE_LISTEN_DELAY", 500*time.Millisecond),
		VoiceRestartDelay:  getEnvAsDurationOrDefault("VOICE_RESTART_DELAY", time.Second),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// Validate checks the loaded values against the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

// getEnvAsDurationOrDefault accepts Go duration strings ("1500ms") or a bare
// number of milliseconds.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}
