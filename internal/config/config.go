package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env           string // application environment (dev, test, prod)
	Port          string // HTTP port to listen on
	LogLevel      string // zerolog level name
	DBUser        string
	DBPass        string // may be empty
	DBHost        string
	DBPort        string
	DBName        string
	SessionSecret string        // HMAC key for the session cookie envelope
	SessionTTL    time.Duration // fixed lifetime, never extended
	ScryptN       int
	ScryptR       int
	ScryptP       int
	LLMAPIKey     string // empty disables the LLM; every call degrades to fallbacks
	LLMModel      string
	LLMTimeout    time.Duration
	RabbitURL     string // empty disables dispatch events
	EventLogDir   string // where the dispatch consumer appends its audit log
	SeedOnStart   bool
	SeedAdminPass string // empty skips the seeded admin account
}

// SecureCookies reports whether the session cookie must carry Secure.
func (c Config) SecureCookies() bool { return c.Env == "prod" }

// Load reads a .env file when present and then the environment. Required
// variables are enforced by must() and missing values exit the process.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		SessionSecret: must("SESSION_SECRET"),
		SessionTTL:    envDur("SESSION_TTL", 24*time.Hour),
		ScryptN:       envInt("SCRYPT_N", 16384),
		ScryptR:       envInt("SCRYPT_R", 8),
		ScryptP:       envInt("SCRYPT_P", 1),
		LLMAPIKey:     envStr("LLM_API_KEY", os.Getenv("GEMINI_API_KEY")),
		LLMModel:      envStr("LLM_MODEL", "gemini-2.5-flash"),
		LLMTimeout:    envDur("LLM_TIMEOUT", 20*time.Second),
		RabbitURL:     envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		EventLogDir:   envStr("DISPATCH_LOG_DIR", "logs"),
		SeedOnStart:   envBool("SEED_ON_START", false),
		SeedAdminPass: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
}

// DispatchConfig carries the search radius and claim policy.
type DispatchConfig struct {
	EmergencyRadiusKm float64
	NormalRadiusKm    float64
	ClaimAttempts     int
	FallbackNumber    string
}

// LoadDispatchConfig reads dispatch policy, defaulting to a 25 km emergency
// radius and a 10 km routine radius.
func LoadDispatchConfig() DispatchConfig {
	cfg := DispatchConfig{
		EmergencyRadiusKm: envFloat("EMERGENCY_RADIUS_KM", 25),
		NormalRadiusKm:    envFloat("NORMAL_RADIUS_KM", 10),
		ClaimAttempts:     envInt("DISPATCH_CLAIM_ATTEMPTS", 3),
		FallbackNumber:    envStr("FALLBACK_EMERGENCY_NUMBER", "112"),
	}
	if cfg.ClaimAttempts < 1 {
		cfg.ClaimAttempts = 1
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
