package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/hostel-meals/utils"
)

type Config struct {
	DBDriver  string
	DBSource  string
	DBLogMode string
	Port      string
	GinMode   string
	LogLevel  string

	JWTSecret string
	JWTTTL    time.Duration

	PurchaseTTL   time.Duration
	PurchaseStore string // sql or redis
	RedisURL      string

	MaxItemQuantity int

	SeedFile      string
	AdminName     string
	AdminEmail    string
	AdminPassword string

	CORSOrigin string
	RateLimit  float64
}

// Load reads .env if present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}
	return FromEnv()
}

func FromEnv() *Config {
	return &Config{
		DBDriver:  getEnv("DB_DRIVER", "sqlite"),
		DBSource:  getEnv("DB_SOURCE", "hostel_meals.db"),
		DBLogMode: getEnv("DB_LOG_MODE", "warn"),
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		PurchaseTTL:   getDuration("PURCHASE_TTL", 15*time.Minute),
		PurchaseStore: getEnv("PURCHASE_STORE", "sql"),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),

		MaxItemQuantity: getInt("MAX_ITEM_QUANTITY", 10),

		SeedFile:      os.Getenv("SEED_FILE"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		RateLimit:  getFloat("RATE_LIMIT", 50),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.ErrorLogger.Warnf("Invalid %s %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		utils.ErrorLogger.Warnf("Invalid %s %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		utils.ErrorLogger.Warnf("Invalid %s %q, using %v", key, v, fallback)
		return fallback
	}
	return f
}
