// Package nashville is a practice-loop player for Nashville number
// progressions: it resolves scale degrees against a key, strums the chords
// on a looping transport, and reports chord/beat/progress changes to a UI.
package nashville

import (
	"fmt"
	"math"
	"sync"

	intaudio "github.com/cbegin/nashville-go/internal/audio"
	intseq "github.com/cbegin/nashville-go/internal/sequencer"
	intsynth "github.com/cbegin/nashville-go/internal/synth"
	"github.com/cbegin/nashville-go/internal/theory"
)

// Mode selects the scale the progression's degrees resolve against.
type Mode string

const (
	ModeMajor Mode = "major"
	ModeMinor Mode = "minor"
)

func (m Mode) toTheory() theory.Mode {
	if m == ModeMinor {
		return theory.ModeMinor
	}
	return theory.ModeMajor
}

// Instrument selects the strum voice.
type Instrument string

const (
	InstrumentPluck Instrument = "pluck"
	InstrumentPad   Instrument = "pad"
	InstrumentSteel Instrument = "steel"
)

func instrumentParams(inst Instrument) (intsynth.Params, error) {
	switch inst {
	case InstrumentPluck:
		return intsynth.PluckParams(), nil
	case InstrumentPad:
		return intsynth.PadParams(), nil
	case InstrumentSteel:
		return intsynth.SteelParams(), nil
	default:
		return intsynth.Params{}, fmt.Errorf("unknown instrument %q", inst)
	}
}

// EventKind identifies player notification events.
type EventKind int

const (
	EventChordChange EventKind = iota
	EventBeatTick
	EventProgress
)

// Event carries one notification from Watch().
type Event struct {
	Kind     EventKind
	Chord    string  // chord display name, EventChordChange only
	Index    int     // progression slot index, EventChordChange only
	Beat     int     // 0-3 within the bar, EventBeatTick only
	Progress float64 // loop fraction 0..1, EventProgress only
}

// Notify bundles push-style callbacks, registered once at construction.
// They run on the audio render path; keep them brief and non-blocking.
type Notify struct {
	OnChordChange func(name string, index int)
	OnBeat        func(beatInBar int)
	OnProgress    func(fraction float64)
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	instrument Instrument
	notify     Notify
	octave     int
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{instrument: InstrumentPluck, octave: 3}
}

func WithInstrument(inst Instrument) PlayerOption {
	return func(cfg *playerConfig) { cfg.instrument = inst }
}

func WithNotify(n Notify) PlayerOption {
	return func(cfg *playerConfig) { cfg.notify = n }
}

// WithOctave sets the octave chord voicings are rooted in (default 3).
func WithOctave(octave int) PlayerOption {
	return func(cfg *playerConfig) { cfg.octave = octave }
}

// Player is the embeddable playback engine. All methods are safe for
// concurrent use.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	seq        *intseq.Sequencer
	output     *intaudio.Output
	playing    bool

	prog       Progression
	keyName    string
	mode       Mode
	strumDiv   int
	instrument Instrument
	baseGain   float64
	chordVol   int
	clickVol   int

	eventCh   chan Event
	eventChMu sync.Mutex
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sampleRate must be positive, got %d", sampleRate)
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	params, err := instrumentParams(cfg.instrument)
	if err != nil {
		return nil, err
	}

	p := &Player{
		sampleRate: sampleRate,
		keyName:    "C",
		mode:       ModeMajor,
		strumDiv:   1,
		instrument: cfg.instrument,
		baseGain:   params.MasterGain,
		chordVol:   80,
		clickVol:   60,
	}
	notify := cfg.notify
	p.seq = intseq.New(sampleRate,
		intsynth.New(sampleRate, params),
		intsynth.NewClick(sampleRate),
		intseq.Options{
			Octave: cfg.octave,
			OnChord: func(name string, index int) {
				if notify.OnChordChange != nil {
					notify.OnChordChange(name, index)
				}
				p.sendEvent(Event{Kind: EventChordChange, Chord: name, Index: index})
			},
			OnBeat: func(beat int) {
				if notify.OnBeat != nil {
					notify.OnBeat(beat)
				}
				p.sendEvent(Event{Kind: EventBeatTick, Beat: beat})
			},
			OnProgress: func(fraction float64) {
				if notify.OnProgress != nil {
					notify.OnProgress(fraction)
				}
				p.sendEvent(Event{Kind: EventProgress, Progress: fraction})
			},
		})
	p.seq.SetVoiceGain(p.baseGain * volumeGain(p.chordVol))
	p.seq.SetClickGain(volumeGain(p.clickVol))
	return p, nil
}

// Start begins playback from the top of the loop. The audio device is
// activated on first use; activation failure is returned and the player
// stays stopped. Starting an empty progression or an already-playing
// session is a safe no-op.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return nil
	}
	if p.prog.TotalBeats() == 0 {
		return nil
	}
	if p.output == nil {
		out, err := intaudio.Open(p.sampleRate, p.seq)
		if err != nil {
			return err
		}
		p.output = out
	}
	p.seq.Start()
	p.output.Start()
	p.playing = true
	return nil
}

// Stop halts playback and resets the position to the loop start. The audio
// device stays open for the next Start.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.seq.Stop()
	p.playing = false
}

// Close stops playback and releases the audio device.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		p.seq.Stop()
		p.playing = false
	}
	if p.output == nil {
		return nil
	}
	err := p.output.Close()
	p.output = nil
	return err
}

// SetProgression validates and installs a new progression. While playing,
// the loop is rebuilt in place; editing down to zero total beats stops
// playback.
func (p *Player) SetProgression(prog Progression) error {
	if err := prog.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prog = append(Progression(nil), prog...)
	p.seq.SetProgression(p.prog.toSlots())
	if p.prog.TotalBeats() == 0 {
		p.playing = false
	}
	return nil
}

func (p *Player) Progression() Progression {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append(Progression(nil), p.prog...)
}

// SetTempo sets beats per minute, clamped to 60-300. Scheduled events sit
// at musical-time positions, so no reschedule happens.
func (p *Player) SetTempo(bpm int) {
	if bpm < 60 {
		bpm = 60
	}
	if bpm > 300 {
		bpm = 300
	}
	p.seq.SetTempo(float64(bpm))
}

func (p *Player) Tempo() int { return int(p.seq.Tempo()) }

// SetKey changes the key by name ("C", "F#", "Bb") and mode. The change is
// heard from the next strum; event timing is unaffected.
func (p *Player) SetKey(name string, mode Mode) error {
	key, err := theory.ParseKey(name)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyName = theory.PitchName(key)
	p.mode = mode
	p.seq.SetKey(key, mode.toTheory())
	return nil
}

func (p *Player) Key() (string, Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keyName, p.mode
}

// SetStrumDivision sets how often a held chord is re-struck: every 1, 2 or
// 4 beats.
func (p *Player) SetStrumDivision(beats int) error {
	if beats != 1 && beats != 2 && beats != 4 {
		return fmt.Errorf("strum division must be 1, 2 or 4, got %d", beats)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strumDiv = beats
	p.seq.SetStrumDivision(beats)
	return nil
}

func (p *Player) StrumDivision() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strumDiv
}

// SetInstrument swaps the strum voice. The outgoing voice is silenced
// before the new one is installed.
func (p *Player) SetInstrument(inst Instrument) error {
	params, err := instrumentParams(inst)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instrument = inst
	p.baseGain = params.MasterGain
	p.seq.SetVoice(intsynth.New(p.sampleRate, params))
	p.seq.SetVoiceGain(p.baseGain * volumeGain(p.chordVol))
	return nil
}

func (p *Player) Instrument() Instrument {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instrument
}

// SetChordVolume sets the strum channel volume, 0-100. Zero mutes.
func (p *Player) SetChordVolume(vol int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chordVol = clampVolume(vol)
	p.seq.SetVoiceGain(p.baseGain * volumeGain(p.chordVol))
}

// SetMetronomeVolume sets the click channel volume, 0-100. Zero mutes.
func (p *Player) SetMetronomeVolume(vol int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clickVol = clampVolume(vol)
	p.seq.SetClickGain(volumeGain(p.clickVol))
}

func (p *Player) ChordVolume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chordVol
}

func (p *Player) MetronomeVolume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clickVol
}

// Pull accessors for callers that poll instead of subscribing.

func (p *Player) IsPlaying() bool   { return p.seq.Snapshot().Playing }
func (p *Player) ChordIndex() int   { return p.seq.Snapshot().ChordIndex }
func (p *Player) Beat() int         { return p.seq.Snapshot().Beat }
func (p *Player) Progress() float64 { return p.seq.Snapshot().Progress }

// Watch returns a buffered channel of notification events. When the buffer
// is full events are dropped rather than blocking the audio thread. Only
// the most recent Watch channel receives events.
func (p *Player) Watch() <-chan Event {
	ch := make(chan Event, 16)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

func (p *Player) sendEvent(ev Event) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Receiver lagging; drop rather than stall the render path.
		}
	}
}

func clampVolume(vol int) int {
	if vol < 0 {
		return 0
	}
	if vol > 100 {
		return 100
	}
	return vol
}

// volumeGain maps a 0-100 volume onto a decibel curve. Zero is a hard mute
// rather than a finite floor; volume 1 sits at about -40 dB.
func volumeGain(vol int) float64 {
	if vol <= 0 {
		return 0
	}
	db := float64(vol-100) * 0.4
	return math.Pow(10, db/20)
}
