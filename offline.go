package nashville

import (
	"encoding/binary"
	"fmt"
	"math"

	intseq "github.com/cbegin/nashville-go/internal/sequencer"
	intsynth "github.com/cbegin/nashville-go/internal/synth"
	"github.com/cbegin/nashville-go/internal/theory"
)

// RenderOptions configures an offline render. Zero values take the player
// defaults.
type RenderOptions struct {
	SampleRate    int        // default 48000
	Tempo         int        // BPM, clamped 60-300, default 120
	Key           string     // default "C"
	Mode          Mode       // default major
	StrumDivision int        // 1, 2 or 4, default 1
	Instrument    Instrument // default pluck
	Loops         int        // loop passes to render, default 1
	Metronome     bool       // include the click track
	TailSeconds   float64    // extra render time for release tails, default 0.5
}

// RenderLoops renders a progression to interleaved stereo float32 samples
// without opening an audio device. Rendering an empty progression returns
// no samples.
func RenderLoops(prog Progression, opts RenderOptions) ([]float32, error) {
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	if prog.TotalBeats() == 0 {
		return nil, nil
	}

	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	tempo := opts.Tempo
	if tempo == 0 {
		tempo = 120
	}
	if tempo < 60 {
		tempo = 60
	}
	if tempo > 300 {
		tempo = 300
	}
	keyName := opts.Key
	if keyName == "" {
		keyName = "C"
	}
	strumDiv := opts.StrumDivision
	if strumDiv == 0 {
		strumDiv = 1
	}
	if strumDiv != 1 && strumDiv != 2 && strumDiv != 4 {
		return nil, fmt.Errorf("strum division must be 1, 2 or 4, got %d", strumDiv)
	}
	inst := opts.Instrument
	if inst == "" {
		inst = InstrumentPluck
	}
	loops := opts.Loops
	if loops <= 0 {
		loops = 1
	}
	tail := opts.TailSeconds
	if tail == 0 {
		tail = 0.5
	}
	if tail < 0 {
		tail = 0
	}

	params, err := instrumentParams(inst)
	if err != nil {
		return nil, err
	}
	key, err := theory.ParseKey(keyName)
	if err != nil {
		return nil, err
	}

	var click intseq.ClickVoice
	if opts.Metronome {
		click = intsynth.NewClick(sampleRate)
		click.SetMasterGain(volumeGain(60))
	}
	seq := intseq.New(sampleRate, intsynth.New(sampleRate, params), click, intseq.Options{})
	seq.SetTempo(float64(tempo))
	seq.SetKey(key, opts.Mode.toTheory())
	seq.SetStrumDivision(strumDiv)
	seq.SetProgression(prog.toSlots())
	seq.SetVoiceGain(params.MasterGain * volumeGain(80))
	if !seq.Start() {
		return nil, nil
	}

	loopSeconds := float64(prog.LoopBars()*4) * 60 / float64(tempo)
	frames := int(float64(sampleRate) * (loopSeconds*float64(loops) + tail))
	out := make([]float32, frames*2)
	seq.Process(out)
	return out, nil
}

// EncodeWAV wraps interleaved stereo float32 samples in a WAV container
// (format 3, IEEE float, little-endian).
func EncodeWAV(samples []float32, sampleRate int) []byte {
	const channels = 2
	dataSize := len(samples) * 4
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], channels)
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*channels*4))
	binary.LittleEndian.PutUint16(out[32:], channels*4)
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
