// Package synth implements the sound trigger side of the player: a
// polyphonic oscillator engine with ADSR envelopes for chord voicings, and
// a metronome click. Instrument variants are parameter presets.
package synth

import (
	"math"
	"time"
)

const twoPi = math.Pi * 2

// Waveform selects the oscillator shape.
type Waveform int

const (
	WaveTriangle Waveform = iota
	WaveSawtooth
	WaveSquare
)

type Params struct {
	Polyphony    int
	Wave         Waveform
	AttackSec    float64
	DecaySec     float64
	SustainLvl   float64
	ReleaseSec   float64
	MasterGain   float64
	AttackLead   time.Duration // how early the scheduler should trigger notes
	VibratoDepth float64       // semitones, 0 = none
	VibratoRate  float64       // Hz
}

// PluckParams is a guitar-ish pick: instant attack, quick decay to a quiet
// sustain.
func PluckParams() Params {
	return Params{
		Polyphony:  24,
		Wave:       WaveTriangle,
		AttackSec:  0.004,
		DecaySec:   0.35,
		SustainLvl: 0.25,
		ReleaseSec: 0.12,
		MasterGain: 0.5,
		AttackLead: 90 * time.Millisecond,
	}
}

// PadParams is a slow organ-like pad with a gentle vibrato.
func PadParams() Params {
	return Params{
		Polyphony:    24,
		Wave:         WaveSquare,
		AttackSec:    0.06,
		DecaySec:     0.2,
		SustainLvl:   0.6,
		ReleaseSec:   0.3,
		MasterGain:   0.35,
		AttackLead:   120 * time.Millisecond,
		VibratoDepth: 0.12,
		VibratoRate:  5.5,
	}
}

// SteelParams is a brighter, saw-based strum voice.
func SteelParams() Params {
	return Params{
		Polyphony:  24,
		Wave:       WaveSawtooth,
		AttackSec:  0.006,
		DecaySec:   0.3,
		SustainLvl: 0.3,
		ReleaseSec: 0.15,
		MasterGain: 0.4,
		AttackLead: 90 * time.Millisecond,
	}
}

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

type voice struct {
	active bool
	id     int
	freq   float64
	phase  float64
	vel    float64
	env    float64
	state  envState
}

// Engine is a fixed-pool polyphonic synthesizer.
type Engine struct {
	sampleRate float64
	params     Params
	voices     []voice
	nextID     int
	masterGain float64
	vibPhase   float64
}

func New(sampleRate int, params Params) *Engine {
	if params.Polyphony <= 0 {
		params.Polyphony = 24
	}
	return &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Polyphony),
		masterGain: params.MasterGain,
	}
}

// NoteToFreq converts a MIDI note number to Hz (A4 = 69 = 440 Hz).
func NoteToFreq(note int) float64 {
	return 440.0 * math.Exp2(float64(note-69)/12.0)
}

// NoteOn starts a voice and returns its id for a later NoteOff. When the
// pool is full the quietest voice is stolen.
func (e *Engine) NoteOn(note, velocity int) int {
	slot := -1
	quietest := math.MaxFloat64
	for i := range e.voices {
		if !e.voices[i].active {
			slot = i
			break
		}
		if e.voices[i].env < quietest {
			quietest = e.voices[i].env
			slot = i
		}
	}
	id := e.nextID
	e.nextID++
	if velocity < 1 {
		velocity = 1
	}
	if velocity > 127 {
		velocity = 127
	}
	e.voices[slot] = voice{
		active: true,
		id:     id,
		freq:   NoteToFreq(note),
		vel:    float64(velocity) / 127.0,
		state:  envAttack,
	}
	return id
}

// NoteOff moves a voice into its release stage.
func (e *Engine) NoteOff(id int) {
	for i := range e.voices {
		if e.voices[i].active && e.voices[i].id == id {
			e.voices[i].state = envRelease
			return
		}
	}
}

// Silence releases every sounding voice. Used when the instrument is
// swapped out or playback stops.
func (e *Engine) Silence() {
	for i := range e.voices {
		if e.voices[i].active {
			e.voices[i].state = envRelease
		}
	}
}

func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	e.masterGain = gain
}

func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

// AttackLead reports how early triggers should fire to mask the attack
// stage, per the preset.
func (e *Engine) AttackLead() time.Duration {
	return e.params.AttackLead
}

// RenderFrame produces one stereo frame.
func (e *Engine) RenderFrame() (float32, float32) {
	freqScale := 1.0
	if e.params.VibratoDepth > 0 && e.params.VibratoRate > 0 {
		vib := math.Sin(e.vibPhase*twoPi) * e.params.VibratoDepth
		freqScale = math.Exp2(vib / 12.0)
		e.vibPhase += e.params.VibratoRate / e.sampleRate
		if e.vibPhase >= 1 {
			e.vibPhase -= 1
		}
	}

	var sum float64
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		e.stepEnvelope(v)
		if !v.active {
			continue
		}
		v.phase += v.freq * freqScale / e.sampleRate
		if v.phase >= 1 {
			v.phase -= 1
		}
		sum += e.oscillate(v.phase) * v.env * v.vel
	}

	// Headroom for six-note voicings, then a soft knee to avoid clipping.
	sum *= e.masterGain / math.Sqrt(6)
	if sum > 0.9 {
		sum = 0.9 + 0.1*math.Tanh((sum-0.9)*10)
	} else if sum < -0.9 {
		sum = -0.9 + 0.1*math.Tanh((sum+0.9)*10)
	}
	s := float32(sum)
	return s, s
}

func (e *Engine) stepEnvelope(v *voice) {
	switch v.state {
	case envAttack:
		if e.params.AttackSec <= 0 {
			v.env = 1
			v.state = envDecay
			return
		}
		v.env += 1 / (e.params.AttackSec * e.sampleRate)
		if v.env >= 1 {
			v.env = 1
			v.state = envDecay
		}
	case envDecay:
		if e.params.DecaySec <= 0 {
			v.env = e.params.SustainLvl
			v.state = envSustain
			return
		}
		v.env -= (1 - e.params.SustainLvl) / (e.params.DecaySec * e.sampleRate)
		if v.env <= e.params.SustainLvl {
			v.env = e.params.SustainLvl
			v.state = envSustain
		}
	case envSustain:
		// holds until NoteOff
	case envRelease:
		if e.params.ReleaseSec <= 0 {
			v.env = 0
		} else {
			v.env -= 1 / (e.params.ReleaseSec * e.sampleRate)
		}
		if v.env <= 0.0005 {
			v.env = 0
			v.state = envOff
			v.active = false
		}
	}
}

func (e *Engine) oscillate(phase float64) float64 {
	switch e.params.Wave {
	case WaveSawtooth:
		return 2*phase - 1
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	default: // triangle
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	}
}
