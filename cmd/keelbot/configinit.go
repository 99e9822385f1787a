package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/keelbot/internal/config"
)

// configInitCmd interactively builds a starter configuration file.
func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Interactively create a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "keelbot.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			var (
				token    string
				chats    string
				admins   string
				keelURL  string
				keelUser string
				keelPass string
				bind     string
				confirm  bool
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Telegram bot token").
						Description("From @BotFather").
						EchoMode(huh.EchoModePassword).
						Value(&token),
					huh.NewInput().
						Title("Chat IDs").
						Description("Comma-separated chats to notify (e.g. -100123,-100456)").
						Value(&chats),
					huh.NewInput().
						Title("Admin usernames").
						Description("Comma-separated Telegram usernames allowed to run commands").
						Value(&admins),
				),
				huh.NewGroup(
					huh.NewInput().
						Title("Keel URL").
						Placeholder("http://keel:9300").
						Value(&keelURL),
					huh.NewInput().
						Title("Keel username").
						Value(&keelUser),
					huh.NewInput().
						Title("Keel password").
						EchoMode(huh.EchoModePassword).
						Value(&keelPass),
					huh.NewInput().
						Title("Gateway bind address").
						Placeholder("127.0.0.1:8080").
						Value(&bind),
				),
				huh.NewGroup(
					huh.NewConfirm().
						Title("Write the configuration file?").
						Value(&confirm),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			if !confirm {
				fmt.Println("Aborted.")
				return nil
			}

			chatIDs, err := parseChatIDs(chats)
			if err != nil {
				return err
			}

			cfg := config.Config{}
			cfg.Telegram.Token = token
			cfg.Telegram.ChatIDs = chatIDs
			cfg.Telegram.AdminUsernames = splitList(admins)
			cfg.Keel.URL = keelURL
			cfg.Keel.Username = keelUser
			cfg.Keel.Password = keelPass
			cfg.Gateway.Bind = bind
			cfg.Defaults()

			if err := config.Validate(&cfg); err != nil {
				return err
			}

			out, err := yaml.Marshal(&cfg)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, out, 0o600); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
