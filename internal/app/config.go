package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	SentryDSN   string

	// Generation service
	XAIAPIKey  string
	XAIBaseURL string
	XAIModel   string

	// Transcription service
	STTBaseURL string
	Language   string

	// Speech synthesis
	ElevenLabsAPIKey string
	TTSVoiceID       string

	// Pipeline settings
	ChunkSeconds int
	HistoryPath  string
	WatchDir     string
	WatchWorkers int

	// JWT Authentication
	AccessCode string
	JWTSecret  string
	JWTExpiry  time.Duration
}

// fileConfig is the YAML shape of the optional config file. Every field
// can be overridden by its environment variable.
type fileConfig struct {
	HTTPAddr     string `yaml:"http_addr"`
	LogLevel     string `yaml:"log_level"`
	DatabaseURL  string `yaml:"database_url"`
	SentryDSN    string `yaml:"sentry_dsn"`
	XAIBaseURL   string `yaml:"xai_base_url"`
	XAIModel     string `yaml:"xai_model"`
	STTBaseURL   string `yaml:"stt_base_url"`
	Language     string `yaml:"language"`
	TTSVoiceID   string `yaml:"tts_voice_id"`
	ChunkSeconds int    `yaml:"chunk_seconds"`
	HistoryPath  string `yaml:"history_path"`
	WatchDir     string `yaml:"watch_dir"`
	WatchWorkers int    `yaml:"watch_workers"`
	JWTExpiry    string `yaml:"jwt_expiry"`
}

// LoadConfig reads the optional YAML file at path, then applies
// environment variables on top. Secrets come from the environment only.
func LoadConfig(path string) (Config, error) {
	var fc fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	jwtExpiry, err := time.ParseDuration(getenv("JWT_EXPIRY", orDefault(fc.JWTExpiry, "24h")))
	if err != nil {
		jwtExpiry = 24 * time.Hour
	}

	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", orDefault(fc.HTTPAddr, ":8080")),
		LogLevel:    getenv("LOG_LEVEL", orDefault(fc.LogLevel, "info")),
		DatabaseURL: getenv("DATABASE_URL", fc.DatabaseURL),
		SentryDSN:   getenv("SENTRY_DSN", fc.SentryDSN),

		// Generation service
		XAIAPIKey:  os.Getenv("XAI_API_KEY"),
		XAIBaseURL: getenv("XAI_BASE_URL", fc.XAIBaseURL),
		XAIModel:   getenv("XAI_MODEL", fc.XAIModel),

		// Transcription service
		STTBaseURL: getenv("STT_BASE_URL", fc.STTBaseURL),
		Language:   getenv("LANGUAGE", fc.Language),

		// Speech synthesis
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		TTSVoiceID:       getenv("TTS_VOICE_ID", fc.TTSVoiceID),

		// Pipeline settings
		ChunkSeconds: getenvIntClamped("CHUNK_SECONDS", orDefaultInt(fc.ChunkSeconds, 0), 0, 600),
		HistoryPath:  getenv("HISTORY_PATH", orDefault(fc.HistoryPath, "data/chat_history.json")),
		WatchDir:     getenv("WATCH_DIR", fc.WatchDir),
		WatchWorkers: getenvIntClamped("WATCH_WORKERS", orDefaultInt(fc.WatchWorkers, 2), 1, 32),

		// JWT Authentication
		AccessCode: os.Getenv("ACCESS_CODE"),
		JWTSecret:  os.Getenv("JWT_SECRET"), // Required - no fallback for security
		JWTExpiry:  jwtExpiry,
	}, nil
}

// LoadConfigFromEnv loads configuration from the environment, reading the
// YAML file named by CONFIG_FILE when set.
func LoadConfigFromEnv() (Config, error) {
	return LoadConfig(os.Getenv("CONFIG_FILE"))
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntClamped(k string, def, min, max int) int {
	v := os.Getenv(k)
	if v == "" {
		return clampInt(def, min, max)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return clampInt(def, min, max)
	}
	return clampInt(n, min, max)
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orDefaultInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
