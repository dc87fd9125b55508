package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logger  LoggerConfig  `yaml:"logger"`
	Local   LocalConfig   `yaml:"local"`
	Remote  RemoteConfig  `yaml:"remote"`
	Redis   RedisConfig   `yaml:"redis"`
	Media   MediaConfig   `yaml:"media"`
	S3      S3Config      `yaml:"s3"`
	AI      AIConfig      `yaml:"ai"`
	Sync    SyncConfig    `yaml:"sync"`
	Session SessionConfig `yaml:"session"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"`
	BasePath        string        `yaml:"base_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
}

// LocalConfig describes the on-device store
type LocalConfig struct {
	Driver          string        `yaml:"driver"` // sqlite or postgres
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RemoteConfig describes the shared board document
type RemoteConfig struct {
	Backend  string        `yaml:"backend"` // jsonbin or redis
	BaseURL  string        `yaml:"base_url"`
	BinID    string        `yaml:"bin_id"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	RedisKey string        `yaml:"redis_key"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MediaConfig selects and configures the media host
type MediaConfig struct {
	Provider     string        `yaml:"provider"` // cloudinary or s3
	BaseURL      string        `yaml:"base_url"`
	CloudName    string        `yaml:"cloud_name"`
	UploadPreset string        `yaml:"upload_preset"`
	Timeout      time.Duration `yaml:"timeout"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type AIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig holds the sync engine timings
type SyncConfig struct {
	Debounce          time.Duration `yaml:"debounce"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	GraceWindow       time.Duration `yaml:"grace_window"`
	OnlineWindow      time.Duration `yaml:"online_window"`
	PresenceRetention time.Duration `yaml:"presence_retention"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

type SessionConfig struct {
	UserID int `yaml:"user_id"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8090",
			Mode:            "debug",
			BasePath:        "/api/board",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Logger: LoggerConfig{Level: "info"},
		Local: LocalConfig{
			Driver:          "sqlite",
			DSN:             "kanban.db",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
		},
		Remote: RemoteConfig{
			Backend:  "jsonbin",
			BaseURL:  "https://api.jsonbin.io/v3",
			Timeout:  10 * time.Second,
			RedisKey: "kanban:board",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Media: MediaConfig{
			Provider: "cloudinary",
			BaseURL:  "https://api.cloudinary.com/v1_1",
			Timeout:  60 * time.Second,
		},
		AI: AIConfig{
			Model:   "gemini-3-flash-preview",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: 30 * time.Second,
		},
		Sync: SyncConfig{
			Debounce:          time.Second,
			Heartbeat:         5 * time.Second,
			GraceWindow:       5 * time.Second,
			OnlineWindow:      30 * time.Second,
			PresenceRetention: 120 * time.Second,
			RequestTimeout:    10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
// A .env file in the working directory is loaded into the environment first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	// Load from yaml file if exists
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the rest of the program relies on
func (c *Config) Validate() error {
	switch c.Local.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported local driver %q", c.Local.Driver)
	}
	switch c.Remote.Backend {
	case "jsonbin", "redis":
	default:
		return fmt.Errorf("unsupported remote backend %q", c.Remote.Backend)
	}
	switch c.Media.Provider {
	case "cloudinary", "s3":
	default:
		return fmt.Errorf("unsupported media provider %q", c.Media.Provider)
	}
	if c.Sync.Debounce <= 0 || c.Sync.Heartbeat <= 0 {
		return fmt.Errorf("sync debounce and heartbeat must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Mode, "GIN_MODE")
	setString(&cfg.Server.BasePath, "SERVER_BASE_PATH")
	setString(&cfg.Logger.Level, "LOG_LEVEL")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	setString(&cfg.Local.Driver, "LOCAL_DRIVER")
	setString(&cfg.Local.DSN, "LOCAL_DSN")

	setString(&cfg.Remote.Backend, "REMOTE_BACKEND")
	setString(&cfg.Remote.BaseURL, "JSONBIN_BASE_URL")
	setString(&cfg.Remote.BinID, "JSONBIN_BIN_ID")
	setString(&cfg.Remote.APIKey, "JSONBIN_API_KEY")
	setString(&cfg.Remote.RedisKey, "REMOTE_REDIS_KEY")

	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	setString(&cfg.Media.Provider, "MEDIA_PROVIDER")
	setString(&cfg.Media.CloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&cfg.Media.UploadPreset, "CLOUDINARY_UPLOAD_PRESET")

	setString(&cfg.S3.Bucket, "S3_BUCKET")
	setString(&cfg.S3.Region, "S3_REGION")
	setString(&cfg.S3.Endpoint, "S3_ENDPOINT")
	setString(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.S3.SecretKey, "S3_SECRET_KEY")

	setString(&cfg.AI.APIKey, "API_KEY")
	setString(&cfg.AI.APIKey, "GEMINI_API_KEY")
	setString(&cfg.AI.Model, "GEMINI_MODEL")

	setDuration(&cfg.Sync.Debounce, "SYNC_DEBOUNCE")
	setDuration(&cfg.Sync.Heartbeat, "SYNC_HEARTBEAT")
	setDuration(&cfg.Sync.GraceWindow, "SYNC_GRACE_WINDOW")

	setInt(&cfg.Session.UserID, "KANBAN_USER_ID")
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
