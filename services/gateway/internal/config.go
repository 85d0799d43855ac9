package internal

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/forge-ai/promptforge/shared/profile"
)

type Config struct {
	Port           string
	ProfileDir     string
	OllamaBaseURL  string
	LocalAIBaseURL string
	AMQPURL        string
	ModelsCacheTTL time.Duration
	MaxBodyBytes   int64
	S3             profile.S3Config
}

func ConfigFromEnv() Config {
	return Config{
		Port:           env("PORT", "4000"),
		ProfileDir:     env("PROFILE_DIR", "/data/profiles"),
		OllamaBaseURL:  env("OLLAMA_BASE_URL", "http://ollama:11434"),
		LocalAIBaseURL: env("LOCALAI_BASE_URL", "http://localai:8080"),
		AMQPURL:        env("AMQP_URL", ""),
		ModelsCacheTTL: envDuration("MODELS_CACHE_TTL", 30*time.Second),
		MaxBodyBytes:   int64(envInt("MAX_BODY_BYTES", 1<<20)),
		S3: profile.S3Config{
			Endpoint:  env("PROFILE_S3_ENDPOINT", ""),
			Region:    env("PROFILE_S3_REGION", ""),
			AccessKey: env("PROFILE_S3_ACCESS_KEY", ""),
			SecretKey: env("PROFILE_S3_SECRET_KEY", ""),
			Bucket:    env("PROFILE_S3_BUCKET", "profiles"),
			Prefix:    env("PROFILE_S3_PREFIX", ""),
			UseSSL:    envBool("PROFILE_S3_USE_SSL", false),
		},
	}
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		n, _ := strconv.Atoi(v)
		if n > 0 {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d >= 0 {
			return d
		}
	}
	return def
}
