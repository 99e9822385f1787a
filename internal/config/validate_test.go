package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "123456:ABC-DEF"
	cfg.Telegram.ChatIDs = []int64{-100}
	cfg.Telegram.AdminUsernames = []string{"alice"}
	cfg.Keel.URL = "https://keel.example.org"
	cfg.Defaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Telegram.Token = "" },
			wantSub: "telegram.token is required",
		},
		{
			name:    "malformed token",
			mutate:  func(c *Config) { c.Telegram.Token = "not-a-token" },
			wantSub: "token format invalid",
		},
		{
			name:    "no chats",
			mutate:  func(c *Config) { c.Telegram.ChatIDs = nil },
			wantSub: "chat_ids",
		},
		{
			name:    "no admins",
			mutate:  func(c *Config) { c.Telegram.AdminUsernames = nil },
			wantSub: "admins",
		},
		{
			name:    "polling timeout out of range",
			mutate:  func(c *Config) { c.Telegram.PollingTimeout = 51 },
			wantSub: "polling_timeout",
		},
		{
			name:    "missing keel url",
			mutate:  func(c *Config) { c.Keel.URL = "" },
			wantSub: "keel.url is required",
		},
		{
			name:    "bad keel url scheme",
			mutate:  func(c *Config) { c.Keel.URL = "ftp://keel" },
			wantSub: "http/https",
		},
		{
			name:    "bad scan schedule",
			mutate:  func(c *Config) { c.Keel.ScanSchedule = "not a cron expr" },
			wantSub: "scan_schedule",
		},
		{
			name:    "bad bind address",
			mutate:  func(c *Config) { c.Gateway.Bind = "no-port" },
			wantSub: "gateway.bind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err, tt.wantSub)
			}
		})
	}
}
