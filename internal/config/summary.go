package config

import "gopkg.in/yaml.v3"

const redacted = "***"

// Summary renders the configuration as YAML with every secret masked. It is
// what the /config chat command and `config check` print.
func (c *Config) Summary() string {
	masked := *c
	if masked.Telegram.Token != "" {
		masked.Telegram.Token = redacted
	}
	if masked.Keel.Password != "" {
		masked.Keel.Password = redacted
	}
	if masked.Gateway.WebhookToken != "" {
		masked.Gateway.WebhookToken = redacted
	}

	out, err := yaml.Marshal(&masked)
	if err != nil {
		return ""
	}
	return string(out)
}
