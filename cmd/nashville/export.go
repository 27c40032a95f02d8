package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	nashville "github.com/cbegin/nashville-go"
)

var flagExportOut string

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "loop.mid", "output MIDI file")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [progression...]",
	Short: "Export one loop pass as a standard MIDI file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := nashville.ParseProgression(strings.Join(args, " "))
		if err != nil {
			return err
		}
		data, err := nashville.ExportMIDI(prog, nashville.MIDIOptions{
			Tempo:         flagTempo,
			Key:           flagKey,
			Mode:          flagMode(),
			StrumDivision: flagStrum,
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(flagExportOut, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", flagExportOut)
		return nil
	},
}
