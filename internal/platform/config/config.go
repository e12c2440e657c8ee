package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Extraction     Extraction
	QABaseURL      string
	Redis          RedisConfig
	HandoffTTL     time.Duration
}

// Extraction configures the outbound OCR/classification client.
type Extraction struct {
	BaseURL         string
	Timeout         time.Duration
	ClassifyTimeout time.Duration
	RPS             float64
	Burst           int
}

// RedisConfig configures the optional Redis backend for the hand-off slot.
// An empty URL keeps the slot in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether the process runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	extractionURL := stringEnv("EXTRACTION_BASE_URL", "http://localhost:5000")
	return Server{
		Addr:           stringEnv("INTAKE_ADDR", ":8080"),
		Environment:    stringEnv("ENVIRONMENT", "development"),
		LogLevel:       stringEnv("LOG_LEVEL", "info"),
		MaxUploadBytes: int64(intEnv("MAX_UPLOAD_BYTES", 10<<20)),
		RequestTimeout: durationEnv("REQUEST_TIMEOUT", 60*time.Second),
		Extraction: Extraction{
			BaseURL:         extractionURL,
			Timeout:         durationEnv("EXTRACTION_TIMEOUT", 30*time.Second),
			ClassifyTimeout: durationEnv("CLASSIFY_TIMEOUT", 10*time.Second),
			RPS:             floatEnv("EXTRACTION_RPS", 5),
			Burst:           intEnv("EXTRACTION_BURST", 10),
		},
		QABaseURL: stringEnv("QA_BASE_URL", extractionURL),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 1),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		HandoffTTL: durationEnv("HANDOFF_TTL", 30*time.Minute),
	}
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
