// Package audio adapts a frame-rendering source to the platform's audio
// device via ebiten's audio context.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Source produces interleaved stereo float32 frames on demand.
type Source interface {
	Process(dst []float32)
}

// sourceReader exposes a Source as the little-endian float32 byte stream the
// device player pulls from.
type sourceReader struct {
	mu     sync.Mutex
	source Source
	buf    []float32
}

func (r *sourceReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

func (r *sourceReader) Close() error { return nil }

// Output is an open audio device fed by a Source.
type Output struct {
	player *ebitaudio.Player
	reader *sourceReader
}

// The backend allows one context per process at one fixed rate; the first
// Open pins it.
var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextRate int
)

func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio device already open at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

// Open connects the source to the audio device. Device activation failure
// surfaces here; the caller decides what state to stay in.
func Open(sampleRate int, source Source) (*Output, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := &sourceReader{source: source}
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	return &Output{player: pl, reader: reader}, nil
}

func (o *Output) Start() { o.player.Play() }
func (o *Output) Pause() { o.player.Pause() }

func (o *Output) IsPlaying() bool { return o.player.IsPlaying() }

// Position reports the device's output position, i.e. what the listener is
// hearing right now.
func (o *Output) Position() time.Duration { return o.player.Position() }

func (o *Output) Close() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return err
	}
	return o.reader.Close()
}
