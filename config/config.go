package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver string
	DBDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	// Public reads (menu browsing, table listing) are served for this restaurant.
	DefaultRestaurantID uint

	PromptPayID          string
	PaymentWebhookSecret string

	CorsAllowOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvAsString("PORT", "8080"),
		GinMode:  getEnvAsString("GIN_MODE", "debug"),
		LogLevel: getEnvAsString("LOG_LEVEL", "info"),

		DBDriver: getEnvAsString("DB_DRIVER", "sqlite"),
		DBDSN:    getEnvAsString("DB_DSN", "restaurant.db"),

		JWTSecret: getEnvAsString("JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:    getEnvAsDuration("JWT_TTL", 24*time.Hour),

		DefaultRestaurantID: uint(getEnvAsInt("DEFAULT_RESTAURANT_ID", 1)),

		PromptPayID:          getEnvAsString("PROMPTPAY_ID", "0909634366"),
		PaymentWebhookSecret: getEnvAsString("PAYMENT_WEBHOOK_SECRET", "dev-webhook-secret"),

		CorsAllowOrigins: getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"http://localhost:5173"}),

		RedisAddr:     getEnvAsString("REDIS_ADDR", ""),
		RedisPassword: getEnvAsString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 20),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),
	}
}

// InitDB opens the database selected by DB_DRIVER.
func InitDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}
