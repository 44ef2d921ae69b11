package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultAPIBaseURL = "https://agendamento-ynxr.onrender.com"

// Config holds application configuration
type Config struct {
	Env         string
	LogLevel    string
	LogFormat   string
	APIBaseURL  string
	PublicURL   string
	HTTPTimeout time.Duration

	// Supabase auth/realtime provider
	SupabaseURL     string
	SupabaseAnonKey string
	OAuthProvider   string
	OAuthRedirectTo string

	// Session persistence
	SessionStore string // "file" or "redis"
	SessionFile  string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Realtime change notifications
	RealtimeTransport    string // "supabase" or "redis"
	RealtimeTable        string
	RealtimeRedisChannel string

	MetricsAddr string

	// Availability enumerator
	OpenDaysCount  int
	OpenDaysWindow int
}

// Load reads a .env file when present, then configuration from environment variables.
func Load() *Config {
	_ = LoadDotEnv(".env")
	return &Config{
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
		APIBaseURL:  strings.TrimRight(getEnv("AGENDA_API_BASE_URL", defaultAPIBaseURL), "/"),
		PublicURL:   strings.TrimRight(getEnv("AGENDA_PUBLIC_URL", ""), "/"),
		HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),

		SupabaseURL:     strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		OAuthProvider:   getEnv("OAUTH_PROVIDER", "google"),
		OAuthRedirectTo: getEnv("OAUTH_REDIRECT_TO", ""),

		SessionStore: strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "file"))),
		SessionFile:  getEnv("SESSION_FILE", defaultSessionFile()),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		RealtimeTransport:    strings.ToLower(strings.TrimSpace(getEnv("REALTIME_TRANSPORT", "supabase"))),
		RealtimeTable:        getEnv("REALTIME_TABLE", "agendamentos"),
		RealtimeRedisChannel: getEnv("REALTIME_REDIS_CHANNEL", "agenda:changes"),

		MetricsAddr: getEnv("METRICS_ADDR", ""),

		OpenDaysCount:  getEnvAsInt("OPEN_DAYS_COUNT", 5),
		OpenDaysWindow: getEnvAsInt("OPEN_DAYS_WINDOW", 30),
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path without overriding variables
// already present in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RealtimeURL derives the Supabase realtime websocket endpoint.
func (c *Config) RealtimeURL() string {
	if c.SupabaseURL == "" {
		return ""
	}
	base := c.SupabaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/realtime/v1/websocket"
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".agenda-session.json"
	}
	return filepath.Join(dir, "agenda", "session.json")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
