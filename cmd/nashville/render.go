package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	nashville "github.com/cbegin/nashville-go"
)

var (
	flagRenderOut   string
	flagRenderLoops int
	flagMetronome   bool
)

func init() {
	renderCmd.Flags().StringVarP(&flagRenderOut, "out", "o", "loop.wav", "output WAV file")
	renderCmd.Flags().IntVarP(&flagRenderLoops, "loops", "n", 1, "loop passes to render")
	renderCmd.Flags().BoolVar(&flagMetronome, "metronome", false, "include the click track")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render [progression...]",
	Short: "Render a progression to a WAV file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := nashville.ParseProgression(strings.Join(args, " "))
		if err != nil {
			return err
		}
		samples, err := nashville.RenderLoops(prog, nashville.RenderOptions{
			SampleRate:    flagRate,
			Tempo:         flagTempo,
			Key:           flagKey,
			Mode:          flagMode(),
			StrumDivision: flagStrum,
			Instrument:    nashville.Instrument(flagInstrument),
			Loops:         flagRenderLoops,
			Metronome:     flagMetronome,
		})
		if err != nil {
			return err
		}
		if samples == nil {
			return fmt.Errorf("progression has no beats to render")
		}
		wav := nashville.EncodeWAV(samples, flagRate)
		if err := os.WriteFile(flagRenderOut, wav, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%.1fs)\n", flagRenderOut,
			float64(len(samples)/2)/float64(flagRate))
		return nil
	},
}
