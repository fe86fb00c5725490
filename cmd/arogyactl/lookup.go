package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/arogya-bot/internal/app"
	"github.com/Adda-Baaj/arogya-bot/internal/dispatch"
)

var symptomsCmd = &cobra.Command{
	Use:   "symptoms <disease>",
	Short: "Print the common symptoms of a disease",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return answerIntent(cmd, dispatch.IntentSymptoms, strings.Join(args, " "))
	},
}

var preventionCmd = &cobra.Command{
	Use:     "prevention <disease>",
	Aliases: []string{"prevent"},
	Short:   "Print prevention measures for a disease",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return answerIntent(cmd, dispatch.IntentPreventions, strings.Join(args, " "))
	},
}

var outbreaksCmd = &cobra.Command{
	Use:   "outbreaks",
	Short: "List the latest outbreak reports",
	Long: `List the latest outbreak reports from the configured feed.
With --filter only reports whose title mentions the given disease are shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		return answerIntent(cmd, dispatch.IntentOutbreaks, filter)
	},
}

// answerIntent dispatches an already-known intent, skipping classification.
func answerIntent(cmd *cobra.Command, intent, disease string) error {
	return withBot(cmd, func(ctx context.Context, bot *app.Bot) error {
		params := map[string]any{}
		if disease = strings.TrimSpace(disease); disease != "" {
			params[dispatch.DiseaseParam] = disease
		}
		reply := bot.Dispatcher.Handle(ctx, dispatch.Request{Intent: intent, Parameters: params})
		fmt.Fprintln(cmd.OutOrStdout(), reply.TextOr("", dispatch.FallbackText))
		if reply.Outcome == dispatch.OutcomeUnavailable {
			return fmt.Errorf("upstream data unavailable")
		}
		return nil
	})
}

func init() {
	outbreaksCmd.Flags().StringP("filter", "f", "", "only show reports whose title contains this text")
	rootCmd.AddCommand(symptomsCmd, preventionCmd, outbreaksCmd)
}
