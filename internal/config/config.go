package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	AuthSecret             string
	TokenTTLMinutes        int
	AdminUsername          string
	AdminPassword          string
	CashierUsername        string
	CashierPassword        string
	LogLevel               string
	SummaryCacheTTLSeconds int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	summaryTTL, err := strconv.Atoi(getEnv("SUMMARY_CACHE_TTL_SECONDS", "60"))
	if err != nil || summaryTTL < 1 {
		summaryTTL = 60
	}

	return Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("CORS_ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		TokenTTLMinutes:        tokenTTL,
		AdminUsername:          getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:          strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		CashierUsername:        getEnv("CASHIER_USERNAME", "cashier"),
		CashierPassword:        strings.TrimSpace(os.Getenv("CASHIER_PASSWORD")),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		SummaryCacheTTLSeconds: summaryTTL,
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
