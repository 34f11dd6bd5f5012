package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Preset storage backends selectable through PRESETS_BACKEND.
const (
	PresetBackendMemory   = "memory"
	PresetBackendRedis    = "redis"
	PresetBackendPostgres = "postgres"
	PresetBackendFile     = "file"
	PresetBackendMinio    = "minio"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Minio     MinioConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Backend   BackendConfig
	Presets   PresetsConfig
	Filters   FiltersConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
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

// MinioConfig points the object-storage preset backend at a bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BackendConfig describes the upstream question API.
type BackendConfig struct {
	BaseURL    string
	SearchPath string
	ListPath   string
	Timeout    time.Duration
	RetryMax   int
	AuthToken  string
}

// PresetsConfig governs where and how many filter presets are kept.
type PresetsConfig struct {
	Backend    string
	StorageKey string
	MaxCount   int
	FileDir    string
}

// FiltersConfig tunes workspace URL sync and query dispatch.
type FiltersConfig struct {
	Debounce     time.Duration
	BasePath     string
	WorkspaceTTL time.Duration
	QueryWorkers int
}

// SearchConfig toggles caching of backend search pages.
type SearchConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// RateLimitConfig configures the per-client token bucket on search routes.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
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

	cfg.Minio = MinioConfig{
		Endpoint:  v.GetString("MINIO_ENDPOINT"),
		AccessKey: v.GetString("MINIO_ACCESS_KEY"),
		SecretKey: v.GetString("MINIO_SECRET_KEY"),
		Bucket:    v.GetString("MINIO_BUCKET"),
		UseSSL:    v.GetBool("MINIO_USE_SSL"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	retryMax := v.GetInt("BACKEND_RETRY_MAX")
	if retryMax < 0 {
		retryMax = 0
	}
	cfg.Backend = BackendConfig{
		BaseURL:    strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
		SearchPath: v.GetString("BACKEND_SEARCH_PATH"),
		ListPath:   v.GetString("BACKEND_LIST_PATH"),
		Timeout:    parseDuration(v.GetString("BACKEND_TIMEOUT"), 15*time.Second),
		RetryMax:   retryMax,
		AuthToken:  v.GetString("BACKEND_AUTH_TOKEN"),
	}

	maxPresets := v.GetInt("PRESETS_MAX")
	if maxPresets <= 0 {
		maxPresets = 10
	}
	cfg.Presets = PresetsConfig{
		Backend:    strings.ToLower(strings.TrimSpace(v.GetString("PRESETS_BACKEND"))),
		StorageKey: v.GetString("PRESETS_STORAGE_KEY"),
		MaxCount:   maxPresets,
		FileDir:    v.GetString("PRESETS_FILE_DIR"),
	}

	workers := v.GetInt("QUERY_WORKERS")
	if workers <= 0 {
		workers = 2
	}
	cfg.Filters = FiltersConfig{
		Debounce:     parseDuration(v.GetString("FILTER_DEBOUNCE"), 300*time.Millisecond),
		BasePath:     v.GetString("FILTER_BASE_PATH"),
		WorkspaceTTL: parseDuration(v.GetString("WORKSPACE_IDLE_TTL"), 30*time.Minute),
		QueryWorkers: workers,
	}

	cfg.Search = SearchConfig{
		CacheEnabled: v.GetBool("SEARCH_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("SEARCH_CACHE_TTL"), time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled: v.GetBool("RATE_LIMIT_ENABLED"),
		RPS:     v.GetFloat64("RATE_LIMIT_RPS"),
		Burst:   v.GetInt("RATE_LIMIT_BURST"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "qbank_admin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "qbank-presets")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "qbank-admin")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8081/api")
	v.SetDefault("BACKEND_SEARCH_PATH", "/questions/filter")
	v.SetDefault("BACKEND_LIST_PATH", "/questions")
	v.SetDefault("BACKEND_TIMEOUT", "15s")
	v.SetDefault("BACKEND_RETRY_MAX", 2)
	v.SetDefault("BACKEND_AUTH_TOKEN", "")

	v.SetDefault("PRESETS_BACKEND", PresetBackendMemory)
	v.SetDefault("PRESETS_STORAGE_KEY", "questionFilterPresets")
	v.SetDefault("PRESETS_MAX", 10)
	v.SetDefault("PRESETS_FILE_DIR", "./presets")

	v.SetDefault("FILTER_DEBOUNCE", "300ms")
	v.SetDefault("FILTER_BASE_PATH", "/questions")
	v.SetDefault("WORKSPACE_IDLE_TTL", "30m")
	v.SetDefault("QUERY_WORKERS", 2)

	v.SetDefault("SEARCH_CACHE_ENABLED", false)
	v.SetDefault("SEARCH_CACHE_TTL", "1m")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
