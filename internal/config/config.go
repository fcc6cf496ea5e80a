package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Cleanup    CleanupConfig    `mapstructure:"cleanup"`
	Export     ExportConfig     `mapstructure:"export"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Client     ClientConfig     `mapstructure:"client"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"` // empty uses the embedded migrations
}

// StorageConfig holds file storage configuration
type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir"`
}

// UploadConfig limits accepted uploads
type UploadConfig struct {
	MaxSize      int64 `mapstructure:"max_size"` // bytes
	MaxBulkFiles int   `mapstructure:"max_bulk_files"`
}

// ProcessingConfig controls the background document processor
type ProcessingConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// CleanupConfig controls document retention
type CleanupConfig struct {
	RetentionDays int           `mapstructure:"retention_days"` // 0 disables cleanup
	Interval      time.Duration `mapstructure:"interval"`
	DryRun        bool          `mapstructure:"dry_run"`
}

// ExportConfig selects the PDF rendering engine
type ExportConfig struct {
	PDFEngine     string        `mapstructure:"pdf_engine"` // "fpdf" or "chrome"
	ChromePath    string        `mapstructure:"chrome_path"`
	ChromeTimeout time.Duration `mapstructure:"chrome_timeout"`
}

// OpenAIConfig holds OpenAI API configuration used for period fallback
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether the OpenAI fallback can be used
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// ClientConfig is used by the CLI to reach the API
type ClientConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	SiteURL string        `mapstructure:"site_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from an optional YAML file, a .env file and
// environment variables. An empty configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SRI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs without overriding the process environment
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database defaults
	v.SetDefault("database.path", "data/sri.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	v.SetDefault("storage.upload_dir", "uploads")

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.max_bulk_files", 20)

	v.SetDefault("processing.poll_interval", 5*time.Second)
	v.SetDefault("processing.batch_size", 5)

	v.SetDefault("cleanup.retention_days", 30)
	v.SetDefault("cleanup.interval", 24*time.Hour)
	v.SetDefault("cleanup.dry_run", false)

	v.SetDefault("export.pdf_engine", "fpdf")
	v.SetDefault("export.chrome_timeout", 60*time.Second)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0)
	v.SetDefault("openai.max_tokens", 50)
	v.SetDefault("openai.timeout", 30*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("client.api_url", "http://localhost:8000")
	v.SetDefault("client.site_url", "http://localhost:3000")
	v.SetDefault("client.timeout", 60*time.Second)
}

// bindEnvVars binds environment variables that do not follow the SRI_ prefix
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("openai.api_key", "SRI_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("client.api_url", "SRI_CLIENT_API_URL", "NEXT_PUBLIC_API_URL")
	_ = v.BindEnv("client.site_url", "SRI_CLIENT_SITE_URL", "NEXT_PUBLIC_SITE_URL")
	_ = v.BindEnv("database.path", "SRI_DATABASE_PATH", "DATABASE_PATH")
	_ = v.BindEnv("storage.upload_dir", "SRI_STORAGE_UPLOAD_DIR", "UPLOAD_DIR")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload.max_size must be positive")
	}
	if c.Upload.MaxBulkFiles <= 0 {
		return fmt.Errorf("upload.max_bulk_files must be positive")
	}
	if c.Processing.BatchSize <= 0 {
		return fmt.Errorf("processing.batch_size must be positive")
	}
	if c.Processing.PollInterval <= 0 {
		return fmt.Errorf("processing.poll_interval must be positive")
	}
	if c.Cleanup.RetentionDays < 0 {
		return fmt.Errorf("cleanup.retention_days cannot be negative")
	}
	switch c.Export.PDFEngine {
	case "fpdf", "chrome":
	default:
		return fmt.Errorf("export.pdf_engine must be fpdf or chrome, got %q", c.Export.PDFEngine)
	}
	if c.Client.APIURL == "" {
		return fmt.Errorf("client.api_url is required")
	}
	return nil
}

// Address returns the host:port the server listens on
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
