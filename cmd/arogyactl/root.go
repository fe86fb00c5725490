package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/arogya-bot/internal/app"
	"github.com/Adda-Baaj/arogya-bot/internal/config"
	"github.com/Adda-Baaj/arogya-bot/internal/logger"
)

var (
	version = "dev"
	commit  = ""
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "arogyactl",
	Short: "Query the arogya health datasets from the terminal",
	Long: `arogyactl answers the same questions as the chatbot without going
through a messaging gateway. It reads the same configuration (configs/.env
and environment variables) as the server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write structured logs to stdout")
}

// withBot builds the bot from configuration, runs fn and releases it.
func withBot(cmd *cobra.Command, fn func(ctx context.Context, bot *app.Bot) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var log logger.Logger = &logger.NopLogger{}
	if verbose {
		if log, err = logger.Init(cfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logger.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := app.NewBot(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := bot.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "cleanup: %v\n", cerr)
		}
	}()
	return fn(ctx, bot)
}
