package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nashville",
	Short: "Practice-loop player for Nashville number progressions",
	Long: `nashville loops a chord progression written in Nashville numbers
("1:2 4:2 5:2 1:2") against a metronome, resolving the degrees in any key
and strumming them on a built-in synth.`,
}

var (
	flagTempo      int
	flagKey        string
	flagMinor      bool
	flagStrum      int
	flagInstrument string
	flagRate       int
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&flagTempo, "tempo", "t", 120, "beats per minute (60-300)")
	pf.StringVarP(&flagKey, "key", "k", "C", "key the degrees resolve against")
	pf.BoolVar(&flagMinor, "minor", false, "use the natural minor mode")
	pf.IntVarP(&flagStrum, "strum", "s", 1, "re-strum every N beats (1, 2 or 4)")
	pf.StringVarP(&flagInstrument, "instrument", "i", "pluck", "strum voice: pluck, pad or steel")
	pf.IntVar(&flagRate, "rate", 48000, "sample rate")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
