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

// Storage drivers supported by the blob store factory.
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	RunMigrations bool

	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-*
	// headers are honoured. Empty trusts none.
	TrustedProxies []string

	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Storage    StorageConfig
	Media      MediaConfig
	Uploads    UploadsConfig
	PublicList PublicListConfig
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

// CacheConfig toggles the Redis-backed response cache.
type CacheConfig struct {
	Enabled       bool
	PublicListTTL time.Duration
}

type JWTConfig struct {
	Secret            string
	Issuer            string
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

// StorageConfig selects where uploaded assets are written.
type StorageConfig struct {
	Driver   string
	LocalDir string
	S3       S3Config
}

// S3Config holds credentials for S3-compatible object storage.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// MediaConfig controls how stored asset keys become URLs.
type MediaConfig struct {
	URL string
}

// UploadsConfig bounds submitted files and covers.
type UploadsConfig struct {
	MaxFileSizeBytes  int64
	MaxCoverSizeBytes int64
	AllowedFileTypes  []string
	AllowedCoverTypes []string
}

// formOverhead is the allowance for text fields and multipart framing on top
// of the file parts.
const formOverhead = 1 << 20

// SubmissionBodyLimit caps a whole upload request: document, cover and form.
func (u UploadsConfig) SubmissionBodyLimit() int64 {
	return u.MaxFileSizeBytes + u.MaxCoverSizeBytes + formOverhead
}

// ProfileBodyLimit caps a profile update carrying one image.
func (u UploadsConfig) ProfileBodyLimit() int64 {
	return u.MaxCoverSizeBytes + formOverhead
}

// PublicListConfig governs the unauthenticated publication listing.
type PublicListConfig struct {
	ApprovedOnly bool
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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
	cfg.RunMigrations = v.GetBool("RUN_MIGRATIONS")

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

	cfg.Cache = CacheConfig{
		Enabled:       v.GetBool("ENABLE_CACHE"),
		PublicListTTL: parseDuration(v.GetString("PUBLIC_LIST_CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}
	cfg.TrustedProxies = splitAndTrim(v.GetString("TRUSTED_PROXIES"))

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		Driver:   strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		LocalDir: v.GetString("STORAGE_LOCAL_DIR"),
		S3: S3Config{
			Endpoint:        v.GetString("S3_ENDPOINT"),
			Region:          v.GetString("S3_REGION"),
			Bucket:          v.GetString("S3_BUCKET"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		},
	}

	cfg.Media = MediaConfig{URL: v.GetString("MEDIA_URL")}

	maxFile := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxFile <= 0 {
		maxFile = 25 * 1024 * 1024
	}
	maxCover := v.GetInt64("UPLOAD_MAX_COVER_SIZE")
	if maxCover <= 0 {
		maxCover = 5 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		MaxFileSizeBytes:  maxFile,
		MaxCoverSizeBytes: maxCover,
		AllowedFileTypes:  splitAndTrim(v.GetString("UPLOAD_ALLOWED_FILE_TYPES")),
		AllowedCoverTypes: splitAndTrim(v.GetString("UPLOAD_ALLOWED_COVER_TYPES")),
	}

	cfg.PublicList = PublicListConfig{ApprovedOnly: v.GetBool("PUBLIC_LIST_APPROVED_ONLY")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("RUN_MIGRATIONS", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "research_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("PUBLIC_LIST_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "research-portal-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("STORAGE_LOCAL_DIR", "./media")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("MEDIA_URL", "/media/")

	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 25*1024*1024)
	v.SetDefault("UPLOAD_MAX_COVER_SIZE", 5*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_FILE_TYPES", "application/pdf,application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document,application/zip")
	v.SetDefault("UPLOAD_ALLOWED_COVER_TYPES", "image/jpeg,image/png,image/webp,image/gif")

	v.SetDefault("PUBLIC_LIST_APPROVED_ONLY", true)
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
