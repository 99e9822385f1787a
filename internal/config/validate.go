package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"

	"github.com/robfig/cron/v3"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// scheduleParser accepts standard five-field cron expressions.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks the structural validity of a Config.
// It is called after Defaults() and collects all problems into one error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Telegram.Token == "" {
		errs = append(errs, errors.New("config: telegram.token is required"))
	} else if !tokenPattern.MatchString(cfg.Telegram.Token) {
		errs = append(errs, errors.New("config: telegram.token format invalid (expected <bot_id>:<hash>)"))
	}

	if len(cfg.Telegram.ChatIDs) == 0 {
		errs = append(errs, errors.New("config: telegram.chat_ids must list at least one notification chat"))
	}

	if len(cfg.Telegram.AdminUsernames) == 0 {
		errs = append(errs, errors.New("config: telegram.admins must list at least one admin username"))
	}

	if cfg.Telegram.PollingTimeout < 0 || cfg.Telegram.PollingTimeout > 50 {
		errs = append(errs, fmt.Errorf("config: telegram.polling_timeout must be 0-50, got %d", cfg.Telegram.PollingTimeout))
	}

	if cfg.Keel.URL == "" {
		errs = append(errs, errors.New("config: keel.url is required"))
	} else if u, err := url.Parse(cfg.Keel.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("config: keel.url must be a valid http/https URL, got %q", cfg.Keel.URL))
	}

	if _, err := scheduleParser.Parse(cfg.Keel.ScanSchedule); err != nil {
		errs = append(errs, fmt.Errorf("config: keel.scan_schedule %q: %w", cfg.Keel.ScanSchedule, err))
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.Gateway.Bind); err != nil {
		errs = append(errs, fmt.Errorf("config: gateway.bind %q is not a valid address", cfg.Gateway.Bind))
	}

	return errors.Join(errs...)
}
