package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	LDAP     LDAPConfig     `yaml:"ldap"`
	AI       AIConfig       `yaml:"ai"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Digest   DigestConfig   `yaml:"digest"`
	Admin    AdminConfig    `yaml:"admin"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Mode     string `yaml:"mode"` // debug, release, test
	LogLevel string `yaml:"log_level"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret             string `yaml:"secret"`
	AccessExpireHours  int    `yaml:"access_expire_hours"`
	RefreshExpireHours int    `yaml:"refresh_expire_hours"`
}

type LDAPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	BaseDN       string `yaml:"base_dn"`
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`
	UserFilter   string `yaml:"user_filter"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// AIConfig is the fallback LLM endpoint used when no llm_configs row is
// active in the database.
type AIConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic, ollama, gemini
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// RedisConfig enables the asynq-backed notification queue. When disabled,
// notifications are delivered synchronously in-process.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig controls where uploaded band media is written.
type StorageConfig struct {
	Dir         string `yaml:"dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

// DigestConfig controls the daily activity digest.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled"`
	At      string `yaml:"at"` // HH:MM, local time
}

// AdminConfig seeds the initial platform admin account.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     "3001",
			Mode:     "debug",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "bandhall.db",
		},
		JWT: JWTConfig{
			Secret:             "bandhall-secret-key-change-in-production",
			AccessExpireHours:  24,
			RefreshExpireHours: 24 * 14,
		},
		LDAP: LDAPConfig{
			Enabled:    false,
			Port:       389,
			UserFilter: "(mail=%s)",
		},
		AI: AIConfig{
			Provider: "openai",
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		Storage: StorageConfig{
			Dir:         "uploads",
			MaxUploadMB: 20,
		},
		Digest: DigestConfig{
			Enabled: false,
			At:      "08:00",
		},
		Admin: AdminConfig{
			Email: "admin@bandhall.local",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Server.LogLevel = level
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		c.AI.Provider = provider
	}
	if baseURL := os.Getenv("AI_BASE_URL"); baseURL != "" {
		c.AI.BaseURL = baseURL
	}
	if apiKey := os.Getenv("AI_API_KEY"); apiKey != "" {
		c.AI.APIKey = apiKey
	}
	if model := os.Getenv("AI_MODEL"); model != "" {
		c.AI.Model = model
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if dir := os.Getenv("STORAGE_DIR"); dir != "" {
		c.Storage.Dir = dir
	}
	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		c.Admin.Email = email
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		c.Admin.Password = password
	}
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
