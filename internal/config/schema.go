// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for keelbot.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Keel     KeelConfig     `yaml:"keel"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Audit    AuditConfig    `yaml:"audit"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// TelegramConfig holds the Telegram bot settings.
type TelegramConfig struct {
	// Token is the bot token obtained from @BotFather.
	Token string `yaml:"token"`

	// APIURL overrides the Bot API base URL (tests, local Bot API servers).
	APIURL string `yaml:"api_url"`

	// ChatIDs are the chats that receive approval notifications.
	ChatIDs []int64 `yaml:"chat_ids"`

	// AdminUsernames are the Telegram usernames allowed to issue commands.
	AdminUsernames []string `yaml:"admins"`

	// PollingTimeout is the long-polling timeout in seconds (0-50).
	PollingTimeout int `yaml:"polling_timeout"`

	// SelectionTimeout bounds how long a pending disambiguation selection
	// stays alive before it is cancelled.
	SelectionTimeout time.Duration `yaml:"selection_timeout"`
}

// KeelConfig holds the Keel approval API settings.
type KeelConfig struct {
	// URL is the base URL of the Keel instance (e.g. https://keel.example.org).
	URL string `yaml:"url"`

	// Username and Password are Keel's basic-auth credentials.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout"`

	// ScanSchedule is the cron expression for the approval scan job
	// (new-approval detection plus a resync pass).
	ScanSchedule string `yaml:"scan_schedule"`
}

// GatewayConfig holds the HTTP gateway settings.
type GatewayConfig struct {
	Bind            string        `yaml:"bind"`
	WebhookToken    string        `yaml:"webhook_token"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuditConfig holds the action audit trail settings.
type AuditConfig struct {
	// Path is the sqlite database file. Empty disables the audit trail.
	Path string `yaml:"path"`
}

// TracingConfig holds the optional OTLP trace export settings.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	// Empty disables tracing entirely.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the exporter connection.
	Insecure bool `yaml:"insecure"`
}

// Defaults fills zero values with sensible defaults.
func (c *Config) Defaults() {
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Telegram.PollingTimeout == 0 {
		c.Telegram.PollingTimeout = 30
	}
	if c.Telegram.SelectionTimeout <= 0 {
		c.Telegram.SelectionTimeout = 5 * time.Minute
	}
	if c.Keel.Timeout <= 0 {
		c.Keel.Timeout = 10 * time.Second
	}
	if c.Keel.ScanSchedule == "" {
		c.Keel.ScanSchedule = "* * * * *"
	}
	if c.Gateway.Bind == "" {
		c.Gateway.Bind = "127.0.0.1:8080"
	}
	if c.Gateway.ReadTimeout <= 0 {
		c.Gateway.ReadTimeout = 10 * time.Second
	}
	if c.Gateway.WriteTimeout <= 0 {
		c.Gateway.WriteTimeout = 30 * time.Second
	}
	if c.Gateway.ShutdownTimeout <= 0 {
		c.Gateway.ShutdownTimeout = 5 * time.Second
	}
}
