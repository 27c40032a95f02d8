package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	nashville "github.com/cbegin/nashville-go"
)

func init() {
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play [progression...]",
	Short: "Loop a progression until interrupted",
	Long: `Plays a progression, printing chord changes as they happen.
Slots are degree[m|maj|dim][:bars[+beats]], e.g.:

  nashville play 1:2 4:2 5:2 1:2
  nashville play -k G --minor 1 6m 4 5`,
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

		events := player.Watch()
		if err := player.Start(); err != nil {
			return err
		}
		key, mode := player.Key()
		fmt.Printf("playing %s in %s %s at %d bpm (ctrl-c to stop)\n",
			prog, key, mode, player.Tempo())

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		for {
			select {
			case ev := <-events:
				if ev.Kind == nashville.EventChordChange {
					fmt.Printf("  %-4s (slot %d)\n", ev.Chord, ev.Index+1)
				}
			case <-interrupt:
				player.Stop()
				return nil
			}
		}
	},
}

// configuredPlayer builds a player from the persistent flags.
func configuredPlayer() (*nashville.Player, error) {
	player, err := nashville.NewPlayer(flagRate,
		nashville.WithInstrument(nashville.Instrument(flagInstrument)))
	if err != nil {
		return nil, err
	}
	player.SetTempo(flagTempo)
	if err := player.SetKey(flagKey, flagMode()); err != nil {
		player.Close()
		return nil, err
	}
	if err := player.SetStrumDivision(flagStrum); err != nil {
		player.Close()
		return nil, err
	}
	return player, nil
}

func flagMode() nashville.Mode {
	if flagMinor {
		return nashville.ModeMinor
	}
	return nashville.ModeMajor
}
