package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Webhook    WebhookConfig
	Auth       AuthConfig
	Ledger     LedgerConfig
	Formance   FormanceConfig
	Commission CommissionConfig
	Setup      SetupConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	GinMode         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	AccessLog       bool
}

// WebhookConfig holds payment gateway webhook settings
type WebhookConfig struct {
	Secret          string
	SignatureHeader string
}

type AuthConfig struct {
	JWTSecret string
}

const (
	LedgerBackendSqlite   = "sqlite"
	LedgerBackendFormance = "formance"
)

// LedgerConfig selects where agent wallets are kept
type LedgerConfig struct {
	Backend  string
	Currency string
}

// FormanceConfig holds Formance Stack credentials
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

type CommissionConfig struct {
	TiersFile string
}

type SetupConfig struct {
	CatalogFile string
}
