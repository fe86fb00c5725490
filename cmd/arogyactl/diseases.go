package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/arogya-bot/internal/app"
	"github.com/Adda-Baaj/arogya-bot/internal/domain"
)

var diseasesCmd = &cobra.Command{
	Use:   "diseases <symptoms|prevention>",
	Short: "List the diseases known to a dataset",
	Long: `List the disease names of the symptoms or prevention dataset in
dataset order. With --refresh the cached copy is dropped first, which
matters when the cache is persisted in bbolt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := domain.ParseCategory(args[0])
		if err != nil {
			return err
		}
		refresh, _ := cmd.Flags().GetBool("refresh")

		return withBot(cmd, func(ctx context.Context, bot *app.Bot) error {
			if refresh {
				if err := bot.Resolver.Refresh(category); err != nil {
					return err
				}
			}
			names, err := bot.Resolver.Names(ctx, category)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		})
	},
}

func init() {
	diseasesCmd.Flags().Bool("refresh", false, "drop the cached dataset before listing")
	rootCmd.AddCommand(diseasesCmd)
}
