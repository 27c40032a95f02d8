package main

import (
	"strings"

	"github.com/spf13/cobra"

	nashville "github.com/cbegin/nashville-go"
	"github.com/cbegin/nashville-go/internal/tui"
)

func init() {
	rootCmd.AddCommand(practiceCmd)
}

var practiceCmd = &cobra.Command{
	Use:   "practice [progression...]",
	Short: "Interactive practice view",
	Long: `Opens a terminal practice view with chord cards, a beat indicator
and live keyboard control over tempo, strum density and instrument.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		player, err := configuredPlayer()
		if err != nil {
			return err
		}
		defer player.Close()

		prog, err := nashville.ParseProgression(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if err := player.SetProgression(prog); err != nil {
			return err
		}
		return tui.Run(player)
	},
}
