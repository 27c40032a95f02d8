// Package sequencer is the playback core: it turns a chord progression into
// clock-scheduled strum, metronome and notification events, and owns the
// playing/stopped session state.
package sequencer

import (
	"sync"
	"time"

	"github.com/cbegin/nashville-go/internal/theory"
	"github.com/cbegin/nashville-go/internal/transport"
)

// VoiceEngine is the sound trigger contract the sequencer schedules
// against. Implementations render one stereo frame at a time.
type VoiceEngine interface {
	NoteOn(note, velocity int) int
	NoteOff(id int)
	RenderFrame() (float32, float32)
	SetMasterGain(gain float64)
	// ActiveVoiceCount returns the number of voices still sounding.
	ActiveVoiceCount() int
	// AttackLead is the fixed latency between a trigger and the voice
	// becoming audible; strum triggers fire this much ahead of the beat.
	AttackLead() time.Duration
	// Silence releases every sounding voice.
	Silence()
}

// ClickVoice is the metronome side channel.
type ClickVoice interface {
	Trigger(accent bool)
	RenderFrame() (float32, float32)
	SetMasterGain(gain float64)
}

// Options configures notification callbacks and voicing parameters.
// Callbacks run on the audio render path: keep them brief and never call
// back into the sequencer from them.
type Options struct {
	OnChord    func(name string, index int)
	OnBeat     func(beatInBar int)
	OnProgress func(fraction float64)
	Octave     int // voicing root octave (default 3)
	Velocity   int // strum velocity (default 96)
}

// State is a consistent snapshot of the session.
type State struct {
	Playing    bool
	ChordIndex int
	Beat       int
	Progress   float64
}

type noteOn struct {
	frame     int64
	note      int
	velocity  int
	durFrames int64
}

type noteOff struct {
	frame int64
	voice int
}

// Sequencer owns the transport clock, the session state and the pending
// note queues. All mutation happens under one mutex, either through the
// public methods or inside clock callbacks fired from Process.
type Sequencer struct {
	mu         sync.Mutex
	clock      *transport.Clock
	voice      VoiceEngine
	click      ClickVoice
	sampleRate int

	slots    []Slot
	key      int
	mode     theory.Mode
	strumDiv int
	octave   int
	velocity int

	playing    bool
	chordIndex int
	beat       int
	progress   float64

	frame    int64
	noteOns  []noteOn
	noteOffs []noteOff

	onChord    func(string, int)
	onBeat     func(int)
	onProgress func(float64)
}

func New(sampleRate int, voice VoiceEngine, click ClickVoice, opts Options) *Sequencer {
	octave := opts.Octave
	if octave == 0 {
		octave = 3
	}
	velocity := opts.Velocity
	if velocity == 0 {
		velocity = 96
	}
	return &Sequencer{
		clock:      transport.New(sampleRate),
		voice:      voice,
		click:      click,
		sampleRate: sampleRate,
		strumDiv:   1,
		octave:     octave,
		velocity:   velocity,
		onChord:    opts.OnChord,
		onBeat:     opts.OnBeat,
		onProgress: opts.OnProgress,
	}
}

// Snapshot returns the session state as one consistent read.
func (s *Sequencer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Playing:    s.playing,
		ChordIndex: s.chordIndex,
		Beat:       s.beat,
		Progress:   s.progress,
	}
}

func (s *Sequencer) SetTempo(bpm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.SetTempo(bpm)
}

func (s *Sequencer) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Tempo()
}

// SetKey changes the key and mode. Chords resolve inside fired callbacks,
// so the change is heard from the next event without a reschedule.
func (s *Sequencer) SetKey(key int, mode theory.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	s.mode = mode
}

func (s *Sequencer) Key() (int, theory.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.mode
}

// SetStrumDivision changes how often a held chord is re-struck, in beats.
// While playing this cancels and rebuilds the scheduled event set; the
// position is preserved.
func (s *Sequencer) SetStrumDivision(beats int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if beats < 1 || beats == s.strumDiv {
		return
	}
	s.strumDiv = beats
	s.rescheduleLocked()
}

func (s *Sequencer) StrumDivision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strumDiv
}

// SetProgression replaces the progression snapshot. While playing this
// cancels and rebuilds the scheduled event set; if the new progression is
// empty, playback stops.
func (s *Sequencer) SetProgression(slots []Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = append([]Slot(nil), slots...)
	s.rescheduleLocked()
}

func (s *Sequencer) Progression() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Slot(nil), s.slots...)
}

// SetVoice swaps the sound trigger adapter. The outgoing engine is silenced
// and its pending notes dropped so no two adapters sound at once. Scheduled
// events are not rebuilt; the new adapter's attack lead takes effect at the
// next reschedule.
func (s *Sequencer) SetVoice(voice VoiceEngine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice.Silence()
	s.noteOns = s.noteOns[:0]
	s.noteOffs = s.noteOffs[:0]
	s.voice = voice
}

func (s *Sequencer) SetVoiceGain(gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice.SetMasterGain(gain)
}

func (s *Sequencer) SetClickGain(gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.click != nil {
		s.click.SetMasterGain(gain)
	}
}

// Start schedules the current progression and starts the clock. Starting an
// empty or zero-length progression is a no-op and reports false. The first
// sounding slot's chord-change is announced immediately so a UI never shows
// stale state while the first audio buffer is in flight.
func (s *Sequencer) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return true
	}
	if TotalBeats(s.slots) == 0 {
		return false
	}
	s.chordIndex = 0
	s.beat = 0
	s.progress = 0
	s.playing = true
	s.scheduleLocked()
	for idx, slot := range s.slots {
		if slot.Beats() > 0 {
			s.announceChord(idx, slot)
			break
		}
	}
	s.clock.Start()
	return true
}

// Stop halts playback, cancels every scheduled callback and resets the
// position to the top of the loop.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	s.stopLocked()
}

func (s *Sequencer) stopLocked() {
	s.playing = false
	s.clock.Stop()
	s.clock.CancelAll()
	s.clock.SetLoop(0)
	s.noteOns = s.noteOns[:0]
	s.noteOffs = s.noteOffs[:0]
	s.voice.Silence()
	s.chordIndex = 0
	s.beat = 0
	s.progress = 0
}

// scheduleLocked rebuilds the clock's event set and loop boundary from the
// current progression. The plan is computed up front so the walk stays
// testable without a live clock.
func (s *Sequencer) scheduleLocked() {
	s.clock.CancelAll()
	events := Plan(s.slots, s.strumDiv)
	if len(events) == 0 {
		s.clock.SetLoop(0)
		return
	}
	lead := s.voice.AttackLead().Seconds()
	for _, ev := range events {
		switch ev.Kind {
		case EventChord:
			// Same lead as the strums so the chord-change notification never
			// lands after its own slot's first trigger.
			slot := s.slots[ev.Slot]
			s.clock.Schedule(float64(ev.Beat), lead, func() {
				s.fireChord(ev.Slot, slot)
			})
		case EventStrum:
			slot := s.slots[ev.Slot]
			dur := ev.DurBeats
			s.clock.Schedule(float64(ev.Beat), lead, func() {
				s.fireStrum(slot, dur)
			})
		case EventTick:
			bib, prog := ev.BeatInBar, ev.Progress
			s.clock.Schedule(float64(ev.Beat), 0, func() {
				s.fireTick(bib, prog)
			})
		}
	}
	s.clock.SetLoop(float64(LoopBeats(s.slots)))
}

func (s *Sequencer) rescheduleLocked() {
	if !s.playing {
		return
	}
	if TotalBeats(s.slots) == 0 {
		s.stopLocked()
		return
	}
	s.scheduleLocked()
	s.clock.CatchUp()
}

func (s *Sequencer) announceChord(index int, slot Slot) {
	s.chordIndex = index
	if s.onChord == nil {
		return
	}
	chord, err := theory.ResolveChord(slot.Degree, s.key, s.mode, slot.Quality)
	if err != nil {
		return
	}
	s.onChord(chord.Name, index)
}

// The fire* callbacks run inside Process with the mutex held; each guards
// against firing after a stop.

func (s *Sequencer) fireChord(index int, slot Slot) {
	if !s.playing {
		return
	}
	s.announceChord(index, slot)
}

func (s *Sequencer) fireTick(beatInBar int, progress float64) {
	if !s.playing {
		return
	}
	s.beat = beatInBar
	s.progress = progress
	if s.click != nil {
		s.click.Trigger(beatInBar == 0)
	}
	if s.onBeat != nil {
		s.onBeat(beatInBar)
	}
	if s.onProgress != nil {
		s.onProgress(progress)
	}
}

// strumSpread staggers the voicing's notes so a chord sounds strummed
// rather than struck as a block.
const strumSpread = 9 * time.Millisecond

func (s *Sequencer) fireStrum(slot Slot, durBeats int) {
	if !s.playing {
		return
	}
	chord, err := theory.ResolveChord(slot.Degree, s.key, s.mode, slot.Quality)
	if err != nil {
		return
	}
	durFrames := s.beatsToFrames(float64(durBeats))
	spread := int64(strumSpread.Seconds() * float64(s.sampleRate))
	for i, note := range chord.Voicing(s.octave) {
		s.noteOns = append(s.noteOns, noteOn{
			frame:     s.frame + int64(i)*spread,
			note:      note,
			velocity:  s.velocity,
			durFrames: durFrames,
		})
	}
}

func (s *Sequencer) beatsToFrames(beats float64) int64 {
	return int64(beats * 60 / s.clock.Tempo() * float64(s.sampleRate))
}

// Process renders interleaved stereo frames, advancing the transport and
// dispatching due triggers as it goes. This is the single entry point the
// audio backend pulls from.
func (s *Sequencer) Process(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		if s.playing {
			s.clock.Advance(1)
			s.firePending()
		}
		s.frame++
		l, r := s.voice.RenderFrame()
		if s.click != nil {
			cl, cr := s.click.RenderFrame()
			l += cl
			r += cr
		}
		dst[f*2] = l
		dst[f*2+1] = r
	}
}

func (s *Sequencer) firePending() {
	if len(s.noteOns) > 0 {
		kept := s.noteOns[:0]
		for _, on := range s.noteOns {
			if on.frame > s.frame {
				kept = append(kept, on)
				continue
			}
			id := s.voice.NoteOn(on.note, on.velocity)
			s.noteOffs = append(s.noteOffs, noteOff{frame: on.frame + on.durFrames, voice: id})
		}
		s.noteOns = kept
	}
	if len(s.noteOffs) > 0 {
		kept := s.noteOffs[:0]
		for _, off := range s.noteOffs {
			if off.frame > s.frame {
				kept = append(kept, off)
				continue
			}
			s.voice.NoteOff(off.voice)
		}
		s.noteOffs = kept
	}
}
