package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	HTTPAddr        string
	RedisAddr       string
	RedisPass       string
	JWTSecret       string
	JWTIssuer       string
	SessionTTL      time.Duration
	SnowflakeNode   int64
	OnboardingSteps int
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8001"),
		RedisAddr:       getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass:       getEnv("REDIS_PASS", ""),
		JWTSecret:       getEnv("JWT_SECRET", "dev-only-secret"),
		JWTIssuer:       getEnv("JWT_ISSUER", "partner-service"),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SnowflakeNode:   int64(getEnvAsInt("SNOWFLAKE_NODE", 11)),
		OnboardingSteps: getEnvAsInt("ONBOARDING_STEPS", 8),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
