package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

type Configuration struct {
	Server   ServerConfig   `json:"server"`
	Auth     AuthConfig     `json:"auth"`
	Logging  LoggingConfig  `json:"logging"`
	Database DatabaseConfig `json:"database"`
	Ledger   LedgerConfig   `json:"ledger"`
	Content  ContentConfig  `json:"content"`
}

type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

type AuthConfig struct {
	JWTSecret  string        `json:"jwt_secret"`
	TokenTTL   time.Duration `json:"token_ttl"`
	BcryptCost int           `json:"bcrypt_cost"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type DatabaseConfig struct {
	Host            string `json:"host"`
	Port            string `json:"port"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	SSLMode         string `json:"ssl_mode"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	MaxOpenConns    int    `json:"max_open_conns"`
	ConnMaxLifetime int    `json:"conn_max_lifetime"`
}

type LedgerConfig struct {
	GatewayURL     string        `json:"gateway_url"`
	Network        string        `json:"network"`
	AdminIdentity  string        `json:"admin_identity"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

type ContentConfig struct {
	// Mode selects the content-addressed store backend: "file" or "http".
	Mode      string `json:"mode"`
	Directory string `json:"directory"`
	URL       string `json:"url"`
}

func LoadConfig(filePath string) (*Configuration, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func DefaultConfig() *Configuration {
	cfg := &Configuration{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Configuration) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 2 * time.Hour
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.Username == "" {
		cfg.Database.Username = "postgres"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "document_management"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 100
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Ledger.GatewayURL == "" {
		cfg.Ledger.GatewayURL = "http://localhost:8080"
	}
	if cfg.Ledger.Network == "" {
		cfg.Ledger.Network = "nykredit-network"
	}
	if cfg.Ledger.AdminIdentity == "" {
		cfg.Ledger.AdminIdentity = "admin"
	}
	if cfg.Ledger.RequestTimeout == 0 {
		cfg.Ledger.RequestTimeout = 30 * time.Second
	}
	if cfg.Content.Mode == "" {
		cfg.Content.Mode = "file"
	}
	if cfg.Content.Directory == "" {
		cfg.Content.Directory = "data/content"
	}
	if cfg.Content.URL == "" {
		cfg.Content.URL = "http://localhost:5001"
	}
}

func LogConfig(cfg *Configuration, logger *zap.Logger) {
	logger.Info("Application configuration",
		zap.String("port", cfg.Server.Port),
		zap.Duration("read_timeout", cfg.Server.ReadTimeout),
		zap.Duration("write_timeout", cfg.Server.WriteTimeout),
		zap.Duration("token_ttl", cfg.Auth.TokenTTL),
		zap.String("database_host", cfg.Database.Host),
		zap.String("database_name", cfg.Database.Name),
		zap.String("ledger_gateway", cfg.Ledger.GatewayURL),
		zap.String("ledger_network", cfg.Ledger.Network),
		zap.String("content_mode", cfg.Content.Mode),
	)
}
