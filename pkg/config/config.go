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

// Storage drivers.
const (
	StorageDriverLocal = "local"
	StorageDriverMinIO = "minio"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Storage   StorageConfig
	Retention RetentionConfig
	Review    ReviewConfig
	Reports   ReportsConfig
	Viewer    ViewerConfig
	Upload    UploadConfig
	Mail      MailConfig
	Vault     VaultConfig
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
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects the blob backend and the per-category roots.
type StorageConfig struct {
	Driver    string
	MediaRoot string
	PDFDir    string
	LatexDir  string
	CodeDir   string
	DocxDir   string
	MinIO     MinIOConfig
}

// MinIOConfig configures the S3-compatible backend.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RetentionConfig caps stored versions per paperwork.
type RetentionConfig struct {
	MaxVersions int
}

// ReviewConfig controls which status changes reviewers may make.
type ReviewConfig struct {
	StrictTransitions bool
}

// ReportsConfig tunes report summary caching.
type ReportsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ViewerConfig signs short-lived links used by embedded file viewers.
type ViewerConfig struct {
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// UploadConfig limits multipart submissions.
type UploadConfig struct {
	MaxFileSizeBytes int64
}

// MailConfig configures notification e-mail delivery.
type MailConfig struct {
	Enabled       bool
	Host          string
	Port          int
	User          string
	Password      string
	From          string
	SkipTLSVerify bool
	Reviewers     []string
	Workers       int
	Retries       int
}

// VaultConfig points at an optional KV v2 secret overlaying sensitive values.
type VaultConfig struct {
	Address    string
	Token      string
	KVMount    string
	SecretPath string
}

// Enabled reports whether a Vault overlay should be attempted.
func (v VaultConfig) Enabled() bool {
	return v.Address != "" && v.Token != ""
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
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		Driver:    strings.ToLower(v.GetString("STORAGE_DRIVER")),
		MediaRoot: v.GetString("MEDIA_ROOT"),
		PDFDir:    v.GetString("PDF_STORAGE_PATH"),
		LatexDir:  v.GetString("LATEX_STORAGE_PATH"),
		CodeDir:   v.GetString("PYTHON_STORAGE_PATH"),
		DocxDir:   v.GetString("DOCX_STORAGE_PATH"),
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
	}

	maxVersions := v.GetInt("RETENTION_MAX_VERSIONS")
	if maxVersions <= 0 {
		maxVersions = 5
	}
	cfg.Retention = RetentionConfig{MaxVersions: maxVersions}

	cfg.Review = ReviewConfig{StrictTransitions: v.GetBool("REVIEW_STRICT_TRANSITIONS")}

	cfg.Reports = ReportsConfig{
		CacheEnabled: v.GetBool("REPORTS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("REPORTS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Viewer = ViewerConfig{
		SignedURLSecret: v.GetString("VIEWER_LINK_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("VIEWER_LINK_TTL"), 30*time.Minute),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 50 * 1024 * 1024
	}
	cfg.Upload = UploadConfig{MaxFileSizeBytes: maxUpload}

	cfg.Mail = MailConfig{
		Enabled:       v.GetBool("NOTIFY_EMAIL_ENABLED"),
		Host:          v.GetString("SMTP_HOST"),
		Port:          v.GetInt("SMTP_PORT"),
		User:          v.GetString("SMTP_USER"),
		Password:      v.GetString("SMTP_PASS"),
		From:          v.GetString("SMTP_FROM"),
		SkipTLSVerify: v.GetBool("SMTP_SKIP_TLS_VERIFY"),
		Reviewers:     splitAndTrim(v.GetString("NOTIFY_REVIEWER_EMAILS")),
		Workers:       v.GetInt("NOTIFY_WORKERS"),
		Retries:       v.GetInt("NOTIFY_RETRIES"),
	}

	cfg.Vault = VaultConfig{
		Address:    v.GetString("VAULT_ADDR"),
		Token:      v.GetString("VAULT_TOKEN"),
		KVMount:    v.GetString("VAULT_KV_MOUNT"),
		SecretPath: v.GetString("VAULT_SECRET_PATH"),
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
	v.SetDefault("DB_NAME", "pms")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "pms-server")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("MEDIA_ROOT", "./media")
	v.SetDefault("PDF_STORAGE_PATH", "pdfs")
	v.SetDefault("LATEX_STORAGE_PATH", "latex")
	v.SetDefault("PYTHON_STORAGE_PATH", "python")
	v.SetDefault("DOCX_STORAGE_PATH", "docx")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "pms-media")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("RETENTION_MAX_VERSIONS", 5)
	v.SetDefault("REVIEW_STRICT_TRANSITIONS", false)
	v.SetDefault("REPORTS_CACHE_ENABLED", false)
	v.SetDefault("REPORTS_CACHE_TTL", "5m")
	v.SetDefault("VIEWER_LINK_SECRET", "dev_viewer_secret")
	v.SetDefault("VIEWER_LINK_TTL", "30m")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 50*1024*1024)

	v.SetDefault("NOTIFY_EMAIL_ENABLED", false)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("SMTP_SKIP_TLS_VERIFY", false)
	v.SetDefault("NOTIFY_REVIEWER_EMAILS", "")
	v.SetDefault("NOTIFY_WORKERS", 1)
	v.SetDefault("NOTIFY_RETRIES", 3)

	v.SetDefault("VAULT_ADDR", "")
	v.SetDefault("VAULT_TOKEN", "")
	v.SetDefault("VAULT_KV_MOUNT", "secret")
	v.SetDefault("VAULT_SECRET_PATH", "pms-server")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
