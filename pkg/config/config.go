package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Search     SearchConfig
	Analytics  AnalyticsConfig
	Manuscript ManuscriptConfig
	Plagiarism PlagiarismConfig
	Realtime   RealtimeConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SearchConfig tunes the submission search endpoints.
type SearchConfig struct {
	ResultLimit     int
	OptionsCacheTTL time.Duration
}

// AnalyticsConfig governs cache behaviour for the analytics endpoints.
type AnalyticsConfig struct {
	CacheTTL    time.Duration
	TrendMonths int
	TopAuthors  int
}

// ManuscriptConfig controls uploaded manuscript storage and signed downloads.
type ManuscriptConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// PlagiarismConfig tunes the background similarity workers.
type PlagiarismConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	ShingleSize       int
}

// RealtimeConfig controls the pub/sub change feed used for dashboard refresh.
type RealtimeConfig struct {
	Enabled        bool
	ChannelPattern string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	resultLimit := v.GetInt("SEARCH_RESULT_LIMIT")
	if resultLimit <= 0 {
		resultLimit = 50
	}
	cfg.Search = SearchConfig{
		ResultLimit:     resultLimit,
		OptionsCacheTTL: parseDuration(v.GetString("SEARCH_OPTIONS_CACHE_TTL"), 0),
	}

	cfg.Analytics = AnalyticsConfig{
		CacheTTL:    parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 10*time.Minute),
		TrendMonths: v.GetInt("ANALYTICS_TREND_MONTHS"),
		TopAuthors:  v.GetInt("ANALYTICS_TOP_AUTHORS"),
	}

	maxManuscriptSize := v.GetInt64("MANUSCRIPTS_MAX_FILE_SIZE")
	if maxManuscriptSize <= 0 {
		maxManuscriptSize = 5 * 1024 * 1024
	}
	cfg.Manuscript = ManuscriptConfig{
		StorageDir:       v.GetString("MANUSCRIPTS_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("MANUSCRIPTS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("MANUSCRIPTS_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxManuscriptSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("MANUSCRIPTS_ALLOWED_MIME_TYPES")),
	}

	cfg.Plagiarism = PlagiarismConfig{
		WorkerConcurrency: v.GetInt("PLAGIARISM_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("PLAGIARISM_WORKER_RETRIES"),
		ShingleSize:       v.GetInt("PLAGIARISM_SHINGLE_SIZE"),
	}

	cfg.Realtime = RealtimeConfig{
		Enabled:        v.GetBool("ENABLE_REALTIME"),
		ChannelPattern: v.GetString("REALTIME_CHANNEL_PATTERN"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academiapress")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SEARCH_RESULT_LIMIT", 50)
	v.SetDefault("SEARCH_OPTIONS_CACHE_TTL", "0")

	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	v.SetDefault("ANALYTICS_TREND_MONTHS", 6)
	v.SetDefault("ANALYTICS_TOP_AUTHORS", 5)

	v.SetDefault("MANUSCRIPTS_STORAGE_DIR", "./manuscripts")
	v.SetDefault("MANUSCRIPTS_SIGNED_URL_SECRET", "dev_manuscripts_secret")
	v.SetDefault("MANUSCRIPTS_SIGNED_URL_TTL", "30m")
	v.SetDefault("MANUSCRIPTS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("MANUSCRIPTS_ALLOWED_MIME_TYPES", "application/pdf,application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document,text/plain")

	v.SetDefault("PLAGIARISM_WORKER_CONCURRENCY", 2)
	v.SetDefault("PLAGIARISM_WORKER_RETRIES", 3)
	v.SetDefault("PLAGIARISM_SHINGLE_SIZE", 3)

	v.SetDefault("ENABLE_REALTIME", false)
	v.SetDefault("REALTIME_CHANNEL_PATTERN", "academia:changes:*")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
