// Package theory resolves Nashville scale degrees to concrete chords
// and chords to playable voicings.
package theory

import "fmt"

// Mode selects the scale a degree is resolved against.
type Mode int

const (
	ModeMajor Mode = iota
	ModeMinor      // natural minor
)

func (m Mode) String() string {
	if m == ModeMinor {
		return "minor"
	}
	return "major"
}

// Quality is a triad quality. QualityDiatonic means "whatever the mode's
// default is for that degree" and is only meaningful as an override value.
type Quality int

const (
	QualityDiatonic Quality = iota - 1
	QualityMajor
	QualityMinor
	QualityDiminished
)

func (q Quality) String() string {
	switch q {
	case QualityMajor:
		return "major"
	case QualityMinor:
		return "minor"
	case QualityDiminished:
		return "diminished"
	default:
		return "diatonic"
	}
}

// suffix is the chord-symbol suffix for a quality.
func (q Quality) suffix() string {
	switch q {
	case QualityMinor:
		return "m"
	case QualityDiminished:
		return "dim"
	default:
		return ""
	}
}

// Chord is a resolved chord: a root pitch class and a triad quality.
type Chord struct {
	Root    int // pitch class 0-11, 0 = C
	Quality Quality
	Name    string // display name, e.g. "C", "Am", "Bdim"
}

// Cumulative semitone offsets for each scale degree.
var (
	majorIntervals = [7]int{0, 2, 4, 5, 7, 9, 11}
	minorIntervals = [7]int{0, 2, 3, 5, 7, 8, 10}
)

// Default triad quality per degree.
var (
	majorQualities = [7]Quality{QualityMajor, QualityMinor, QualityMinor, QualityMajor, QualityMajor, QualityMinor, QualityDiminished}
	minorQualities = [7]Quality{QualityMinor, QualityDiminished, QualityMajor, QualityMinor, QualityMinor, QualityMajor, QualityMajor}
)

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName returns the display name for a pitch class.
func PitchName(pc int) string {
	return pitchNames[((pc%12)+12)%12]
}

// ParseKey converts a key name ("C", "F#", "Bb") to a pitch class.
func ParseKey(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty key name")
	}
	base := map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}
	pc, ok := base[name[0]&^0x20] // fold to upper case
	if !ok {
		return 0, fmt.Errorf("invalid key %q", name)
	}
	switch {
	case len(name) == 1:
	case len(name) == 2 && name[1] == '#':
		pc++
	case len(name) == 2 && (name[1] == 'b' || name[1] == 'B'):
		pc--
	default:
		return 0, fmt.Errorf("invalid key %q", name)
	}
	return ((pc % 12) + 12) % 12, nil
}

// DiatonicQuality returns the default triad quality for a degree in a mode.
func DiatonicQuality(degree int, mode Mode) (Quality, error) {
	if degree < 1 || degree > 7 {
		return 0, fmt.Errorf("degree %d out of range [1,7]", degree)
	}
	if mode == ModeMinor {
		return minorQualities[degree-1], nil
	}
	return majorQualities[degree-1], nil
}

// ResolveChord maps a scale degree in a key and mode to a concrete chord.
// An override of QualityDiatonic keeps the mode's default quality.
func ResolveChord(degree, key int, mode Mode, override Quality) (Chord, error) {
	if degree < 1 || degree > 7 {
		return Chord{}, fmt.Errorf("degree %d out of range [1,7]", degree)
	}
	interval := majorIntervals[degree-1]
	if mode == ModeMinor {
		interval = minorIntervals[degree-1]
	}
	root := ((key+interval)%12 + 12) % 12
	quality, _ := DiatonicQuality(degree, mode)
	if override != QualityDiatonic {
		quality = override
	}
	return Chord{
		Root:    root,
		Quality: quality,
		Name:    pitchNames[root] + quality.suffix(),
	}, nil
}

// DegreeLabel formats a degree the Nashville way: the bare number when the
// quality is the mode's default, a quality suffix only when overridden.
func DegreeLabel(degree int, mode Mode, override Quality) string {
	label := fmt.Sprintf("%d", degree)
	if override == QualityDiatonic {
		return label
	}
	if def, err := DiatonicQuality(degree, mode); err == nil && def == override {
		return label
	}
	switch override {
	case QualityMinor:
		return label + "m"
	case QualityDiminished:
		return label + "dim"
	default:
		return label + "maj"
	}
}

// Fixed six-tone voicing intervals: root, fifth, octave, third, fifth,
// double octave. A guitar-style doubled voicing rather than a bare triad.
var voicingIntervals = map[Quality][6]int{
	QualityMajor:      {0, 7, 12, 16, 19, 24},
	QualityMinor:      {0, 7, 12, 15, 19, 24},
	QualityDiminished: {0, 6, 12, 15, 18, 24},
}

// Voicing returns six MIDI note numbers for the chord with the root placed
// in the given octave (octave 3 root of C = MIDI 48).
func (c Chord) Voicing(octave int) [6]int {
	base := c.Root + 12*(octave+1)
	intervals := voicingIntervals[c.Quality]
	var notes [6]int
	for i, iv := range intervals {
		notes[i] = base + iv
	}
	return notes
}
