package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"NewsTrader/internal/di"
	"NewsTrader/internal/usecase"
	"NewsTrader/pkg/config"
	applogger "NewsTrader/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "newstrader",
		Short:         "News-driven paper trading agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(configPath)
			if err != nil {
				log.Printf("config load failed: %v", err)
				return err
			}

			log.Printf("env=%s journal=%s port=%d", cfg.Environment, cfg.Journal.Backend, cfg.Server.Port)

			app, err := di.InitializeApp(cfg)
			if err != nil {
				log.Printf("app initialization failed: %v", err)
				return err
			}

			// blocks until SIGINT/SIGTERM
			if err := app.Run(cmd.Context()); err != nil {
				log.Printf("app error: %v", err)
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(configPath)
			if err != nil {
				return err
			}
			redact(cfg)
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	root.AddCommand(newInjectCmd(&configPath))
	return root
}

// newInjectCmd pushes a headline onto the redis inbox of a running agent.
func newInjectCmd(configPath *string) *cobra.Command {
	var msg usecase.HeadlineMessage

	cmd := &cobra.Command{
		Use:   "inject TITLE",
		Short: "Queue a headline for the next market cycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return err
			}
			msg.Title = args[0]

			q := di.NewRedisInboxQueue(cfg, applogger.NewNop())
			defer q.Stop(cmd.Context())

			if err := q.Enqueue(cmd.Context(), usecase.HeadlineJobType, msg); err != nil {
				return fmt.Errorf("inject headline: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %q\n", msg.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&msg.Link, "link", "", "article link")
	cmd.Flags().StringVar(&msg.Source, "source", "", "source label")
	cmd.Flags().StringVar(&msg.TickerHint, "ticker", "", "ticker hint")
	return cmd
}

func redact(cfg *config.Config) {
	for _, s := range []*string{
		&cfg.Oracle.APIKey,
		&cfg.News.NewsAPI.APIKey,
		&cfg.Finnhub.APIKey,
		&cfg.Redis.Password,
		&cfg.ClickHouse.Password,
	} {
		if *s != "" {
			*s = "***"
		}
	}
}
