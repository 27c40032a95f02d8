// Package export writes one loop pass of a progression as a standard MIDI
// file, so practice loops can be taken into a DAW.
package export

import (
	"bytes"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/nashville-go/internal/sequencer"
	"github.com/cbegin/nashville-go/internal/theory"
)

const ticksPerBeat = 480

type Options struct {
	Tempo         float64
	Key           int
	Mode          theory.Mode
	StrumDivision int
	Octave        int // voicing root octave (default 3)
	Velocity      int // default 96
}

type timedMessage struct {
	tick uint32
	msg  smf.Message
	ord  int // stable order for messages at the same tick
}

// MIDI renders one loop pass. Strums become six-note voicings on channel 0;
// chord changes become text markers.
func MIDI(slots []sequencer.Slot, opts Options) (*smf.SMF, error) {
	if opts.Tempo == 0 {
		opts.Tempo = 120
	}
	if opts.StrumDivision == 0 {
		opts.StrumDivision = 1
	}
	if opts.Octave == 0 {
		opts.Octave = 3
	}
	if opts.Velocity == 0 {
		opts.Velocity = 96
	}

	var msgs []timedMessage
	for _, ev := range sequencer.Plan(slots, opts.StrumDivision) {
		if ev.Kind == sequencer.EventTick {
			continue
		}
		slot := slots[ev.Slot]
		chord, err := theory.ResolveChord(slot.Degree, opts.Key, opts.Mode, slot.Quality)
		if err != nil {
			return nil, err
		}
		tick := uint32(ev.Beat) * ticksPerBeat
		switch ev.Kind {
		case sequencer.EventChord:
			msgs = append(msgs, timedMessage{tick: tick, msg: smf.MetaText(chord.Name), ord: len(msgs)})
		case sequencer.EventStrum:
			offTick := tick + uint32(ev.DurBeats)*ticksPerBeat
			for _, note := range chord.Voicing(opts.Octave) {
				msgs = append(msgs,
					timedMessage{tick: tick, msg: smf.Message(midi.NoteOn(0, uint8(note), uint8(opts.Velocity))), ord: len(msgs)},
					timedMessage{tick: offTick, msg: smf.Message(midi.NoteOff(0, uint8(note))), ord: len(msgs) + 1},
				)
			}
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].ord < msgs[j].ord
	})

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerBeat)

	var tempoTrack smf.Track
	tempoTrack.Add(0, smf.MetaMeter(4, 4))
	tempoTrack.Add(0, smf.MetaTempo(opts.Tempo))
	tempoTrack.Close(0)
	if err := sm.Add(tempoTrack); err != nil {
		return nil, err
	}

	var track smf.Track
	var at uint32
	for _, tm := range msgs {
		track.Add(tm.tick-at, tm.msg)
		at = tm.tick
	}
	loopEnd := uint32(sequencer.LoopBeats(slots)) * ticksPerBeat
	if loopEnd > at {
		track.Close(loopEnd - at)
	} else {
		track.Close(0)
	}
	if err := sm.Add(track); err != nil {
		return nil, err
	}
	return sm, nil
}

// Encode renders one loop pass to SMF bytes.
func Encode(slots []sequencer.Slot, opts Options) ([]byte, error) {
	sm, err := MIDI(slots, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := sm.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
