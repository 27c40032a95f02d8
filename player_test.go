package nashville

import (
	"math"
	"testing"
)

func TestParseProgression(t *testing.T) {
	prog, err := ParseProgression("1:2 4:2 5m:1+2 1 7dim:0+1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Progression{
		{Degree: 1, Bars: 2},
		{Degree: 4, Bars: 2},
		{Degree: 5, Quality: QualityMinor, Bars: 1, ExtraBeats: 2},
		{Degree: 1, Bars: 1},
		{Degree: 7, Quality: QualityDiminished, Bars: 0, ExtraBeats: 1},
	}
	if len(prog) != len(want) {
		t.Fatalf("parsed %d slots, want %d", len(prog), len(want))
	}
	for i := range want {
		if prog[i] != want[i] {
			t.Fatalf("slot %d = %+v, want %+v", i, prog[i], want[i])
		}
	}
}

func TestParseProgressionRejectsBadInput(t *testing.T) {
	for _, text := range []string{"8", "0:2", "1x", "1:-1", "1:1+x", "1:1+4", "1:1+9", "1sus"} {
		if _, err := ParseProgression(text); err == nil {
			t.Errorf("ParseProgression(%q) accepted bad input", text)
		}
	}
}

func TestProgressionRoundTrip(t *testing.T) {
	prog := Progression{
		{Degree: 1, Bars: 2},
		{Degree: 5, Quality: QualityMinor, Bars: 1, ExtraBeats: 2},
		{Degree: 6, Bars: 1},
	}
	back, err := ParseProgression(prog.String())
	if err != nil {
		t.Fatalf("reparse %q: %v", prog.String(), err)
	}
	for i := range prog {
		if back[i] != prog[i] {
			t.Fatalf("round trip changed slot %d: %+v -> %+v", i, prog[i], back[i])
		}
	}
}

func TestProgressionLoopBoundary(t *testing.T) {
	prog := Progression{
		{Degree: 1, Bars: 2}, {Degree: 4, Bars: 2},
		{Degree: 5, Bars: 2}, {Degree: 1, Bars: 2},
	}
	if got := prog.TotalBeats(); got != 32 {
		t.Fatalf("TotalBeats = %d, want 32", got)
	}
	if got := prog.LoopBars(); got != 8 {
		t.Fatalf("LoopBars = %d, want 8", got)
	}

	// A 9-beat progression rounds up to a 3-bar loop.
	odd := Progression{{Degree: 1, Bars: 2, ExtraBeats: 1}}
	if got := odd.LoopBars(); got != 3 {
		t.Fatalf("LoopBars = %d for 9 beats, want 3", got)
	}
}

func TestChordSlotLabel(t *testing.T) {
	// A redundant override shows no suffix; only a real change does.
	if got := (ChordSlot{Degree: 6, Quality: QualityMinor}).Label(ModeMajor); got != "6" {
		t.Fatalf("6 minor in major = %q, want bare 6", got)
	}
	if got := (ChordSlot{Degree: 4, Quality: QualityMinor}).Label(ModeMajor); got != "4m" {
		t.Fatalf("4 minor in major = %q, want 4m", got)
	}
	if got := (ChordSlot{Degree: 3, Quality: QualityDefault}).Label(ModeMinor); got != "3" {
		t.Fatalf("diatonic 3 = %q, want bare 3", got)
	}
}

func TestProgressionValidate(t *testing.T) {
	bad := Progression{{Degree: 1, Bars: 1}, {Degree: 9, Bars: 1}}
	if err := bad.Validate(); err == nil {
		t.Fatal("degree 9 passed validation")
	}
	neg := Progression{{Degree: 2, Bars: -1}}
	if err := neg.Validate(); err == nil {
		t.Fatal("negative bars passed validation")
	}
	// Extra beats address the partial bar only; a whole bar's worth belongs
	// in Bars.
	over := Progression{{Degree: 1, Bars: 1, ExtraBeats: 9}}
	if err := over.Validate(); err == nil {
		t.Fatal("extra beats beyond a bar passed validation")
	}
	if err := (ChordSlot{Degree: 1, ExtraBeats: 4}).Validate(); err == nil {
		t.Fatal("extra beats 4 passed validation")
	}
	if err := (ChordSlot{Degree: 1, ExtraBeats: 3}).Validate(); err != nil {
		t.Fatalf("extra beats 3 rejected: %v", err)
	}
}

func TestPlayerConfigAPI(t *testing.T) {
	p, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	defer p.Close()

	if got := p.Tempo(); got != 120 {
		t.Fatalf("default tempo = %d, want 120", got)
	}
	p.SetTempo(500)
	if got := p.Tempo(); got != 300 {
		t.Fatalf("tempo should clamp to 300, got %d", got)
	}
	p.SetTempo(10)
	if got := p.Tempo(); got != 60 {
		t.Fatalf("tempo should clamp to 60, got %d", got)
	}

	if err := p.SetStrumDivision(3); err == nil {
		t.Fatal("strum division 3 accepted")
	}
	if err := p.SetStrumDivision(2); err != nil {
		t.Fatalf("strum division 2 rejected: %v", err)
	}
	if got := p.StrumDivision(); got != 2 {
		t.Fatalf("strum division = %d, want 2", got)
	}

	if err := p.SetKey("Bb", ModeMinor); err != nil {
		t.Fatalf("set key: %v", err)
	}
	key, mode := p.Key()
	if key != "A#" || mode != ModeMinor {
		t.Fatalf("key = %s %s, want A# minor", key, mode)
	}
	if err := p.SetKey("H", ModeMajor); err == nil {
		t.Fatal("key H accepted")
	}

	if err := p.SetInstrument(Instrument("banjo")); err == nil {
		t.Fatal("unknown instrument accepted")
	}
	if err := p.SetInstrument(InstrumentPad); err != nil {
		t.Fatalf("set instrument: %v", err)
	}
	if got := p.Instrument(); got != InstrumentPad {
		t.Fatalf("instrument = %s, want pad", got)
	}
}

func TestPlayerRejectsInvalidProgression(t *testing.T) {
	p, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	defer p.Close()
	if err := p.SetProgression(Progression{{Degree: 0, Bars: 1}}); err == nil {
		t.Fatal("invalid progression accepted")
	}
	if got := len(p.Progression()); got != 0 {
		t.Fatalf("rejected progression was installed (%d slots)", got)
	}
}

func TestPlayerStartEmptyProgressionIsNoOp(t *testing.T) {
	p, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	defer p.Close()
	if err := p.Start(); err != nil {
		t.Fatalf("start with empty progression: %v", err)
	}
	if p.IsPlaying() {
		t.Fatal("player reports playing with no progression")
	}
}

func TestVolumeGainCurve(t *testing.T) {
	if got := volumeGain(0); got != 0 {
		t.Fatalf("volume 0 gain = %f, want hard mute", got)
	}
	if got := volumeGain(100); math.Abs(got-1) > 1e-9 {
		t.Fatalf("volume 100 gain = %f, want 1", got)
	}
	if volumeGain(50) <= volumeGain(25) {
		t.Fatal("gain curve not increasing")
	}
	// Perceptual curve: halfway on the slider is well below half gain.
	if g := volumeGain(50); g >= 0.5 {
		t.Fatalf("volume 50 gain = %f, want a dB taper below 0.5", g)
	}
}
