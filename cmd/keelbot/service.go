package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program adapts the daemon to the kardianos/service lifecycle.
type program struct {
	cfgPath string
	cancel  context.CancelFunc
	done    chan error
}

func (p *program) Start(service.Service) error {
	app, err := newApp(p.cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func() {
		p.done <- app.run(ctx)
	}()
	return nil
}

func (p *program) Stop(service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		return <-p.done
	}
	return nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service [install|uninstall|start|stop|run]",
		Short:     "Manage keelbot as a system service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			svcConfig := &service.Config{
				Name:        "keelbot",
				DisplayName: "keelbot",
				Description: "Telegram bot for Keel deployment approvals",
			}
			if cfgPath != "" {
				svcConfig.Arguments = []string{"service", "run", "--config", cfgPath}
			} else {
				svcConfig.Arguments = []string{"service", "run"}
			}

			prg := &program{cfgPath: cfgPath}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return err
			}

			action := args[0]
			switch action {
			case "run":
				// Under a service manager svc.Run drives Start/Stop; in a
				// terminal it falls back to signal handling.
				if service.Interactive() {
					app, err := newApp(cfgPath)
					if err != nil {
						return err
					}
					ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
					defer stop()
					return app.run(ctx)
				}
				return svc.Run()
			case "install", "uninstall", "start", "stop":
				if err := service.Control(svc, action); err != nil {
					return err
				}
				fmt.Printf("Service %s: done\n", action)
				return nil
			default:
				return fmt.Errorf("unknown service action %q", action)
			}
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
