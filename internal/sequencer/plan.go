package sequencer

import "github.com/cbegin/nashville-go/internal/theory"

const beatsPerBar = 4

// Slot is one chord of a progression: a Nashville degree held for a number
// of whole bars plus extra beats. A zero-length slot is legal and plays
// nothing.
type Slot struct {
	Degree     int
	Quality    theory.Quality // QualityDiatonic keeps the mode's default
	Bars       int
	ExtraBeats int
}

func (s Slot) Beats() int { return s.Bars*beatsPerBar + s.ExtraBeats }

// TotalBeats is the played length of a progression.
func TotalBeats(slots []Slot) int {
	total := 0
	for _, s := range slots {
		total += s.Beats()
	}
	return total
}

// LoopBars rounds the progression up to a whole-bar loop boundary.
func LoopBars(slots []Slot) int {
	return (TotalBeats(slots) + beatsPerBar - 1) / beatsPerBar
}

func LoopBeats(slots []Slot) int { return LoopBars(slots) * beatsPerBar }

// EventKind classifies planned playback events.
type EventKind int

const (
	EventChord EventKind = iota // chord-change notification
	EventStrum                  // sound trigger
	EventTick                   // per-beat metronome/progress tick
)

// Event is one planned playback event at a beat offset from loop start.
type Event struct {
	Beat      int
	Kind      EventKind
	Slot      int     // progression index
	DurBeats  int     // sounding duration, strums only
	BeatInBar int     // 0-3, ticks only
	Progress  float64 // loop fraction elapsed, ticks only
}

// Plan walks the progression once and emits the full event set for one loop
// pass: one chord-change per sounding slot, strums every strumDivision
// beats with the last strum clipped to the slot boundary, and one tick per
// beat. Zero-length slots emit nothing. An empty progression plans nothing.
func Plan(slots []Slot, strumDivision int) []Event {
	total := TotalBeats(slots)
	if total == 0 {
		return nil
	}
	var events []Event
	offset := 0
	for idx, slot := range slots {
		beats := slot.Beats()
		if beats == 0 {
			continue
		}
		events = append(events, Event{Beat: offset, Kind: EventChord, Slot: idx})
		for k := 0; k*strumDivision < beats; k++ {
			at := k * strumDivision
			dur := strumDivision
			if rem := beats - at; rem < dur {
				dur = rem
			}
			events = append(events, Event{Beat: offset + at, Kind: EventStrum, Slot: idx, DurBeats: dur})
		}
		for b := 0; b < beats; b++ {
			at := offset + b
			events = append(events, Event{
				Beat:      at,
				Kind:      EventTick,
				Slot:      idx,
				BeatInBar: at % beatsPerBar,
				Progress:  float64(at) / float64(total),
			})
		}
		offset += beats
	}
	return events
}
