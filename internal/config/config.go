package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBDriver         string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	DBMaxOpenConns   int
	DBMaxIdleConns   int
	DBConnectTimeout time.Duration
	DBRetryAttempts  int

	// Sessions
	JWTSecret         string
	JWTExpiry         time.Duration
	JWTRememberExpiry time.Duration

	// AI provider (OpenAI-compatible chat completions)
	AIAPIKey        string
	AIAPIURL        string
	AIModel         string
	AITimeout       time.Duration
	AIRetryAttempts int
	AIAnswerCheck   string // keyword, model

	// Listings
	UploadDir          string
	UploadMaxBytes     int64
	ListingAutoApprove bool

	// Admin
	AdminUsername string
	AdminPassword string
	AdminToken    string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBName:           getEnv("DB_NAME", "lostfound"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:   parseInt(getEnv("DB_MAX_OPEN_CONNS", "10"), 10),
		DBMaxIdleConns:   parseInt(getEnv("DB_MAX_IDLE_CONNS", "2"), 2),
		DBConnectTimeout: parseDuration(getEnv("DB_CONNECT_TIMEOUT", "30s"), 30*time.Second),
		DBRetryAttempts:  parseInt(getEnv("DB_RETRY_ATTEMPTS", "3"), 3),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTExpiry:         parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),
		JWTRememberExpiry: parseDuration(getEnv("JWT_REMEMBER_EXPIRY", "168h"), 7*24*time.Hour),

		AIAPIKey:        getEnv("AI_API_KEY", ""),
		AIAPIURL:        getEnv("AI_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		AIModel:         getEnv("AI_MODEL", "deepseek-chat"),
		AITimeout:       parseDuration(getEnv("AI_TIMEOUT", "30s"), 30*time.Second),
		AIRetryAttempts: parseInt(getEnv("AI_RETRY_ATTEMPTS", "3"), 3),
		AIAnswerCheck:   strings.ToLower(getEnv("AI_ANSWER_CHECK", "keyword")),

		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		UploadMaxBytes:     int64(parseInt(getEnv("UPLOAD_MAX_BYTES", "5242880"), 5*1024*1024)),
		ListingAutoApprove: parseBool(getEnv("LISTING_AUTO_APPROVE", "false")),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminToken:    getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "3000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

// DSN renders the connection string for the configured driver. For sqlite,
// DB_NAME is used as the file path.
func (c *Config) DSN() string {
	timeoutSecs := strconv.Itoa(int(c.DBConnectTimeout.Seconds()))
	switch c.DBDriver {
	case "mysql":
		return c.DBUser + ":" + c.DBPassword +
			"@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
			"?charset=utf8mb4&parseTime=True&loc=UTC&timeout=" + timeoutSecs + "s"
	case "sqlite":
		return c.DBName
	default:
		return "host=" + c.DBHost +
			" user=" + c.DBUser +
			" password=" + c.DBPassword +
			" dbname=" + c.DBName +
			" port=" + c.DBPort +
			" sslmode=" + c.DBSSLMode +
			" connect_timeout=" + timeoutSecs +
			" TimeZone=UTC"
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
