package sequencer

import (
	"testing"
	"time"

	"github.com/cbegin/nashville-go/internal/theory"
)

type countingEngine struct {
	noteOns  []int // note numbers in trigger order
	noteOffs []int
	silenced int
	nextID   int
	lead     time.Duration
	gain     float64
}

func (e *countingEngine) NoteOn(note, velocity int) int {
	e.noteOns = append(e.noteOns, note)
	id := e.nextID
	e.nextID++
	return id
}
func (e *countingEngine) NoteOff(id int)                  { e.noteOffs = append(e.noteOffs, id) }
func (e *countingEngine) RenderFrame() (float32, float32) { return 0, 0 }
func (e *countingEngine) SetMasterGain(gain float64)      { e.gain = gain }
func (e *countingEngine) ActiveVoiceCount() int           { return len(e.noteOns) - len(e.noteOffs) }
func (e *countingEngine) AttackLead() time.Duration       { return e.lead }
func (e *countingEngine) Silence()                        { e.silenced++ }

type countingClick struct {
	accents int
	plains  int
}

func (c *countingClick) Trigger(accent bool) {
	if accent {
		c.accents++
	} else {
		c.plains++
	}
}
func (c *countingClick) RenderFrame() (float32, float32) { return 0, 0 }
func (c *countingClick) SetMasterGain(float64)           {}

const testRate = 1000

// processBeats pumps enough frames through Process to move just past a beat
// count at the sequencer's current tempo.
func processBeats(s *Sequencer, beats float64) {
	frames := int(beats*60/s.Tempo()*testRate) + 2
	buf := make([]float32, frames*2)
	s.Process(buf)
}

func twelveBarish() []Slot {
	// 1 1 1 1 over two bars each: 8 bars, 32 beats.
	return []Slot{
		{Degree: 1, Quality: theory.QualityDiatonic, Bars: 2},
		{Degree: 4, Quality: theory.QualityDiatonic, Bars: 2},
		{Degree: 5, Quality: theory.QualityDiatonic, Bars: 2},
		{Degree: 1, Quality: theory.QualityDiatonic, Bars: 2},
	}
}

func TestPlanTwoBarSlots(t *testing.T) {
	slots := twelveBarish()
	if got := TotalBeats(slots); got != 32 {
		t.Fatalf("TotalBeats = %d, want 32", got)
	}
	if got := LoopBars(slots); got != 8 {
		t.Fatalf("LoopBars = %d, want 8", got)
	}
	events := Plan(slots, 4)
	var chords, strums, ticks int
	for _, ev := range events {
		switch ev.Kind {
		case EventChord:
			chords++
		case EventStrum:
			strums++
		case EventTick:
			ticks++
		}
	}
	if chords != 4 {
		t.Fatalf("planned %d chord events, want 4", chords)
	}
	if strums != 8 {
		t.Fatalf("planned %d strums at division 4, want 8", strums)
	}
	if ticks != 32 {
		t.Fatalf("planned %d ticks, want 32", ticks)
	}
}

func TestPlanZeroSlotIsInert(t *testing.T) {
	with := []Slot{
		{Degree: 1, Bars: 1},
		{Degree: 4}, // zero length
		{Degree: 5, Bars: 1},
	}
	without := []Slot{
		{Degree: 1, Bars: 1},
		{Degree: 5, Bars: 1},
	}
	a := Plan(with, 2)
	b := Plan(without, 2)
	if len(a) != len(b) {
		t.Fatalf("zero-length slot changed the plan: %d vs %d events", len(a), len(b))
	}
	for i := range a {
		if a[i].Beat != b[i].Beat || a[i].Kind != b[i].Kind || a[i].DurBeats != b[i].DurBeats {
			t.Fatalf("event %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPlanClipsLastStrumAtSlotBoundary(t *testing.T) {
	slots := []Slot{{Degree: 1, Bars: 1, ExtraBeats: 2}} // 6 beats
	var strums []Event
	for _, ev := range Plan(slots, 4) {
		if ev.Kind == EventStrum {
			strums = append(strums, ev)
		}
	}
	if len(strums) != 2 {
		t.Fatalf("got %d strums for a 6-beat slot at division 4, want 2", len(strums))
	}
	if strums[0].DurBeats != 4 || strums[1].DurBeats != 2 {
		t.Fatalf("strum durations %d,%d, want 4,2", strums[0].DurBeats, strums[1].DurBeats)
	}
	if strums[1].Beat != 4 {
		t.Fatalf("second strum at beat %d, want 4", strums[1].Beat)
	}
}

func TestPlanEmptyProgression(t *testing.T) {
	if Plan(nil, 1) != nil {
		t.Fatal("empty progression planned events")
	}
	if Plan([]Slot{{Degree: 1}}, 1) != nil {
		t.Fatal("all-zero progression planned events")
	}
}

func TestStartEmptyProgressionRefuses(t *testing.T) {
	s := New(testRate, &countingEngine{}, nil, Options{})
	if s.Start() {
		t.Fatal("Start succeeded with no progression")
	}
	if s.Snapshot().Playing {
		t.Fatal("session reports playing with no progression")
	}
}

func TestStartAnnouncesFirstChordImmediately(t *testing.T) {
	var names []string
	engine := &countingEngine{}
	s := New(testRate, engine, nil, Options{
		OnChord: func(name string, index int) { names = append(names, name) },
	})
	s.SetProgression([]Slot{
		{Degree: 4}, // zero length, must be skipped
		{Degree: 1, Bars: 1},
	})
	if !s.Start() {
		t.Fatal("Start failed")
	}
	if len(names) != 1 || names[0] != "C" {
		t.Fatalf("announced %v before any audio, want [C]", names)
	}
	if got := s.Snapshot().ChordIndex; got != 1 {
		t.Fatalf("chord index %d, want first sounding slot 1", got)
	}
}

func TestSequencerPlaysAndLoops(t *testing.T) {
	engine := &countingEngine{}
	click := &countingClick{}
	var beats []int
	s := New(testRate, engine, click, Options{
		OnBeat: func(b int) { beats = append(beats, b) },
	})
	s.SetProgression([]Slot{{Degree: 1, Bars: 1}}) // 4-beat loop
	s.SetTempo(120)
	s.SetStrumDivision(4) // one strum per pass
	s.Start()
	processBeats(s, 8.5) // two full passes and a bit

	// 6 strings per strum, one strum per loop pass, passes 1-3 started.
	if got := len(engine.noteOns); got != 18 {
		t.Fatalf("%d note-ons over ~2 passes, want 18", got)
	}
	if click.accents < 2 {
		t.Fatalf("%d accented ticks, want one per pass (>=2)", click.accents)
	}
	if click.plains < 6 {
		t.Fatalf("%d plain ticks, want 3 per pass (>=6)", click.plains)
	}
	for i, b := range beats {
		if b != i%4 {
			t.Fatalf("beat sequence %v broke at %d", beats, i)
		}
	}
}

func TestStrumDurationsProduceNoteOffs(t *testing.T) {
	engine := &countingEngine{}
	s := New(testRate, engine, nil, Options{})
	s.SetProgression([]Slot{{Degree: 1, Bars: 1}})
	s.SetTempo(120)
	s.SetStrumDivision(2)
	s.Start()
	processBeats(s, 3.5) // past the first strum's 2-beat duration

	if len(engine.noteOffs) < 6 {
		t.Fatalf("%d note-offs after first strum elapsed, want >=6", len(engine.noteOffs))
	}
}

func TestStopResetsSession(t *testing.T) {
	engine := &countingEngine{}
	s := New(testRate, engine, nil, Options{})
	s.SetProgression(twelveBarish())
	s.SetTempo(120)
	s.Start()
	processBeats(s, 5)
	s.Stop()

	st := s.Snapshot()
	if st.Playing || st.ChordIndex != 0 || st.Beat != 0 || st.Progress != 0 {
		t.Fatalf("state after stop: %+v, want zeroed", st)
	}
	if engine.silenced == 0 {
		t.Fatal("stop did not silence the engine")
	}

	before := len(engine.noteOns)
	processBeats(s, 4)
	if len(engine.noteOns) != before {
		t.Fatal("stopped sequencer kept triggering notes")
	}
}

func TestKeyChangeAppliesAtNextStrum(t *testing.T) {
	var names []string
	engine := &countingEngine{}
	s := New(testRate, engine, nil, Options{
		OnChord: func(name string, index int) { names = append(names, name) },
	})
	s.SetProgression([]Slot{
		{Degree: 1, Bars: 1},
		{Degree: 1, Bars: 1},
	})
	s.SetTempo(120)
	s.Start()
	s.SetKey(7, theory.ModeMajor) // C -> G mid-play, no reschedule
	processBeats(s, 4.5)

	if len(names) < 2 {
		t.Fatalf("got %d chord announcements, want >=2", len(names))
	}
	if names[0] != "C" {
		t.Fatalf("first announcement %q, want C (old key)", names[0])
	}
	if names[1] != "G" {
		t.Fatalf("second announcement %q, want G (new key)", names[1])
	}
}

func TestStrumDivisionChangeDoesNotReplayElapsed(t *testing.T) {
	engine := &countingEngine{}
	var chords int
	s := New(testRate, engine, nil, Options{
		OnChord: func(string, int) { chords++ },
	})
	s.SetProgression([]Slot{{Degree: 1, Bars: 2}}) // 8-beat loop
	s.SetTempo(120)
	s.Start()
	processBeats(s, 3.1) // past beat 3's strum and its spread

	chordsBefore := chords
	notesBefore := len(engine.noteOns)
	s.SetStrumDivision(2)
	processBeats(s, 0.1)

	if chords != chordsBefore {
		t.Fatalf("reschedule replayed the chord event (%d -> %d)", chordsBefore, chords)
	}
	if len(engine.noteOns) != notesBefore {
		t.Fatal("reschedule replayed elapsed strums")
	}

	// The remaining strums of this pass follow the new division.
	processBeats(s, 2.5) // to ~beat 5.6: new strums due at 4 (and 3 was skipped)
	if len(engine.noteOns) <= notesBefore {
		t.Fatal("no strums after division change")
	}
}

func TestProgressionEditWhilePlaying(t *testing.T) {
	engine := &countingEngine{}
	s := New(testRate, engine, nil, Options{})
	s.SetProgression(twelveBarish())
	s.SetTempo(120)
	s.Start()
	processBeats(s, 2)

	s.SetProgression([]Slot{{Degree: 6, Bars: 1}})
	if !s.Snapshot().Playing {
		t.Fatal("edit stopped playback")
	}

	s.SetProgression(nil)
	if s.Snapshot().Playing {
		t.Fatal("emptying the progression did not stop playback")
	}
}

func TestVoiceSwapSilencesOldEngine(t *testing.T) {
	oldEngine := &countingEngine{}
	newEngine := &countingEngine{}
	s := New(testRate, oldEngine, nil, Options{})
	s.SetProgression([]Slot{{Degree: 1, Bars: 1}})
	s.SetTempo(120)
	s.SetStrumDivision(4)
	s.Start()
	processBeats(s, 1)

	s.SetVoice(newEngine)
	if oldEngine.silenced == 0 {
		t.Fatal("old engine was not silenced on swap")
	}
	processBeats(s, 4)
	if len(newEngine.noteOns) == 0 {
		t.Fatal("new engine never triggered after swap")
	}
	if got := len(oldEngine.noteOns); got != 6 {
		t.Fatalf("old engine triggered %d notes after swap, want its original 6", got)
	}
}

func TestProgressMonotoneWithinPass(t *testing.T) {
	var progress []float64
	s := New(testRate, &countingEngine{}, nil, Options{
		OnProgress: func(p float64) { progress = append(progress, p) },
	})
	s.SetProgression([]Slot{{Degree: 1, Bars: 2}})
	s.SetTempo(240)
	s.Start()
	processBeats(s, 7.5) // just inside one 8-beat pass

	if len(progress) < 8 {
		t.Fatalf("got %d progress ticks, want 8", len(progress))
	}
	for i := 1; i < 8; i++ {
		if progress[i] <= progress[i-1] {
			t.Fatalf("progress not monotone: %v", progress[:8])
		}
	}
	if progress[0] != 0 {
		t.Fatalf("first tick progress %f, want 0", progress[0])
	}
}

func TestAttackLeadTriggersAheadOfBeat(t *testing.T) {
	engine := &countingEngine{lead: 100 * time.Millisecond}
	s := New(testRate, engine, nil, Options{})
	s.SetProgression([]Slot{{Degree: 1, Bars: 1}})
	s.SetTempo(60) // 1 beat per second; beat 1 strum leads at t=0.9s
	s.Start()

	// First strum (beat 0) clamps to the loop start and fires immediately.
	processBeats(s, 0.05)
	if len(engine.noteOns) == 0 {
		t.Fatal("beat-0 strum did not fire at loop start")
	}
}
