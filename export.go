package nashville

import (
	"github.com/cbegin/nashville-go/internal/export"
	"github.com/cbegin/nashville-go/internal/theory"
)

// MIDIOptions configures ExportMIDI. Zero values take the player defaults.
type MIDIOptions struct {
	Tempo         int    // BPM, default 120
	Key           string // default "C"
	Mode          Mode   // default major
	StrumDivision int    // 1, 2 or 4, default 1
}

// ExportMIDI renders one loop pass of a progression as standard MIDI file
// bytes: strums become six-note voicings, chord changes become text markers.
func ExportMIDI(prog Progression, opts MIDIOptions) ([]byte, error) {
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	keyName := opts.Key
	if keyName == "" {
		keyName = "C"
	}
	key, err := theory.ParseKey(keyName)
	if err != nil {
		return nil, err
	}
	return export.Encode(prog.toSlots(), export.Options{
		Tempo:         float64(opts.Tempo),
		Key:           key,
		Mode:          opts.Mode.toTheory(),
		StrumDivision: opts.StrumDivision,
	})
}
