package nashville

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cbegin/nashville-go/internal/sequencer"
	"github.com/cbegin/nashville-go/internal/theory"
)

// Quality is an explicit triad quality override for a progression slot.
// QualityDefault keeps the diatonic quality of the degree under the
// session's mode.
type Quality int

const (
	QualityDefault Quality = iota
	QualityMajor
	QualityMinor
	QualityDiminished
)

func (q Quality) String() string {
	switch q {
	case QualityMajor:
		return "maj"
	case QualityMinor:
		return "m"
	case QualityDiminished:
		return "dim"
	default:
		return ""
	}
}

func (q Quality) toTheory() theory.Quality {
	switch q {
	case QualityMajor:
		return theory.QualityMajor
	case QualityMinor:
		return theory.QualityMinor
	case QualityDiminished:
		return theory.QualityDiminished
	default:
		return theory.QualityDiatonic
	}
}

// ChordSlot is one chord of a progression: a Nashville scale degree held
// for whole bars plus extra beats in 4/4. A zero-length slot is legal and
// contributes nothing to playback.
type ChordSlot struct {
	Degree     int
	Quality    Quality
	Bars       int
	ExtraBeats int
}

func (c ChordSlot) Beats() int { return c.Bars*4 + c.ExtraBeats }

// Label renders the slot in Nashville notation for a mode: the bare degree
// when the quality matches the mode's diatonic default, a suffix only when
// the override actually changes the chord.
func (c ChordSlot) Label(mode Mode) string {
	return theory.DegreeLabel(c.Degree, mode.toTheory(), c.Quality.toTheory())
}

// Validation errors for progression edits. Invalid slots are rejected at
// the mutation boundary; the playback core assumes loaded slots are valid.
var (
	ErrInvalidDegree   = errors.New("degree must be 1-7")
	ErrInvalidDuration = errors.New("bars must not be negative and extra beats must be 0-3")
)

func (c ChordSlot) Validate() error {
	if c.Degree < 1 || c.Degree > 7 {
		return fmt.Errorf("%w: %d", ErrInvalidDegree, c.Degree)
	}
	if c.Bars < 0 || c.ExtraBeats < 0 || c.ExtraBeats > 3 {
		return fmt.Errorf("%w: %d bars %d beats", ErrInvalidDuration, c.Bars, c.ExtraBeats)
	}
	return nil
}

// Progression is an ordered sequence of chord slots, looped during playback.
type Progression []ChordSlot

func (p Progression) Validate() error {
	for i, slot := range p {
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return nil
}

// TotalBeats is the played length; the loop boundary rounds it up to whole
// bars.
func (p Progression) TotalBeats() int {
	total := 0
	for _, slot := range p {
		total += slot.Beats()
	}
	return total
}

func (p Progression) LoopBars() int { return (p.TotalBeats() + 3) / 4 }

// String renders the progression in the text form ParseProgression reads.
func (p Progression) String() string {
	var b strings.Builder
	for i, slot := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(slot.Degree))
		switch slot.Quality {
		case QualityMajor:
			b.WriteString("maj")
		case QualityMinor:
			b.WriteByte('m')
		case QualityDiminished:
			b.WriteString("dim")
		}
		if slot.Bars != 1 || slot.ExtraBeats != 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(slot.Bars))
			if slot.ExtraBeats != 0 {
				b.WriteByte('+')
				b.WriteString(strconv.Itoa(slot.ExtraBeats))
			}
		}
	}
	return b.String()
}

func (p Progression) toSlots() []sequencer.Slot {
	slots := make([]sequencer.Slot, len(p))
	for i, c := range p {
		slots[i] = sequencer.Slot{
			Degree:     c.Degree,
			Quality:    c.Quality.toTheory(),
			Bars:       c.Bars,
			ExtraBeats: c.ExtraBeats,
		}
	}
	return slots
}

// ParseProgression reads the whitespace-separated text form
// `degree[m|maj|dim][:bars[+beats]]`, e.g. "1:2 4:2 5m:1+2 1". A slot with
// no duration suffix lasts one bar; extra beats address a partial bar and
// run 0-3.
func ParseProgression(text string) (Progression, error) {
	var prog Progression
	for _, tok := range strings.Fields(text) {
		slot, err := parseSlot(tok)
		if err != nil {
			return nil, err
		}
		prog = append(prog, slot)
	}
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return prog, nil
}

func parseSlot(tok string) (ChordSlot, error) {
	head, dur, hasDur := strings.Cut(tok, ":")
	if head == "" {
		return ChordSlot{}, fmt.Errorf("chord %q: missing degree", tok)
	}

	degree := int(head[0] - '0')
	if degree < 1 || degree > 7 {
		return ChordSlot{}, fmt.Errorf("chord %q: %w", tok, ErrInvalidDegree)
	}
	slot := ChordSlot{Degree: degree, Bars: 1}
	switch head[1:] {
	case "":
	case "m", "min":
		slot.Quality = QualityMinor
	case "maj":
		slot.Quality = QualityMajor
	case "dim":
		slot.Quality = QualityDiminished
	default:
		return ChordSlot{}, fmt.Errorf("chord %q: unknown quality %q", tok, head[1:])
	}

	if hasDur {
		bars, beats, hasBeats := strings.Cut(dur, "+")
		n, err := strconv.Atoi(bars)
		if err != nil || n < 0 {
			return ChordSlot{}, fmt.Errorf("chord %q: %w", tok, ErrInvalidDuration)
		}
		slot.Bars = n
		slot.ExtraBeats = 0
		if hasBeats {
			b, err := strconv.Atoi(beats)
			if err != nil || b < 0 || b > 3 {
				return ChordSlot{}, fmt.Errorf("chord %q: %w", tok, ErrInvalidDuration)
			}
			slot.ExtraBeats = b
		}
	}
	return slot, nil
}
