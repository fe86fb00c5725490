package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/arogya-bot/internal/app"
	"github.com/Adda-Baaj/arogya-bot/internal/dispatch"
	"github.com/Adda-Baaj/arogya-bot/internal/nlu"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask a free-text question through the configured classifier",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return withBot(cmd, func(ctx context.Context, bot *app.Bot) error {
			res, err := bot.Classifier.Classify(ctx, nlu.Query{Text: text, SessionID: "cli:" + os.Getenv("USER")})
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}
			reply := bot.Dispatcher.Handle(ctx, dispatch.Request{Intent: res.Intent, Parameters: res.Parameters})
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "intent=%s disease=%q outcome=%s\n", res.Intent, reply.Disease, reply.Outcome)
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.TextOr(res.Reply, dispatch.NotUnderstoodText))
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "arogyactl: %v\n", version)
		if commit != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %v\n", commit)
		}
	},
}

func init() {
	rootCmd.AddCommand(askCmd, versionCmd)
}
