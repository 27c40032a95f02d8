package sequencer

import (
	"testing"

	"github.com/cbegin/nashville-go/internal/synth"
)

func BenchmarkSequencerProcess(b *testing.B) {
	slots := []Slot{
		{Degree: 1, Bars: 2}, {Degree: 4, Bars: 2},
		{Degree: 5, Bars: 2}, {Degree: 1, Bars: 2},
	}
	buf := make([]float32, 2048*2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine := synth.New(48000, synth.PluckParams())
		seq := New(48000, engine, synth.NewClick(48000), Options{})
		seq.SetProgression(slots)
		seq.SetTempo(150)
		seq.Start()
		seq.Process(buf)
	}
}
