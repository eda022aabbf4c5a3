// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Search        SearchConfig       `mapstructure:"search"`
	Channels      ChannelsConfig     `mapstructure:"channels"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Inventory     InventoryConfig    `mapstructure:"inventory"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	AdminAPIKey     string `mapstructure:"admin_api_key"`
}

// SearchConfig holds settings for the external search capability.
type SearchConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// ChannelsConfig holds per-channel limit policy and phrase sets.
type ChannelsConfig struct {
	ConversationalDefaultLimit int      `mapstructure:"conversational_default_limit"`
	MaxLimit                   int      `mapstructure:"max_limit"`
	Greetings                  []string `mapstructure:"greetings"`
	Fillers                    []string `mapstructure:"fillers"`
}

// CacheConfig holds the optional search response cache settings.
type CacheConfig struct {
	Enabled bool  `mapstructure:"enabled"`
	TTL     int   `mapstructure:"ttl"` // seconds
	Redis   Redis `mapstructure:"redis"`
}

type Redis struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// InventoryConfig holds the stock alert thresholds.
type InventoryConfig struct {
	LowStockThreshold   int `mapstructure:"low_stock_threshold"`
	OutOfStockThreshold int `mapstructure:"out_of_stock_threshold"`
}

// NotificationConfig holds settings for alert delivery channels.
type NotificationConfig struct {
	AdminEmail string `mapstructure:"admin_email"`
	AdminPhone string `mapstructure:"admin_phone"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
