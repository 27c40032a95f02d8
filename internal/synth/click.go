package synth

import "math"

// Click is the metronome voice: a short decaying sine blip, pitched and
// boosted on the accented downbeat.
type Click struct {
	sampleRate float64
	phase      float64
	freq       float64
	env        float64
	decay      float64 // envelope drop per frame
	level      float64 // per-trigger level (accent vs plain)
	masterGain float64
}

func NewClick(sampleRate int) *Click {
	return &Click{
		sampleRate: float64(sampleRate),
		masterGain: 0.5,
	}
}

// Trigger restarts the blip. Accented ticks (beat one of a measure) ring an
// octave higher and louder.
func (c *Click) Trigger(accent bool) {
	c.phase = 0
	c.env = 1
	if accent {
		c.freq = 1760
		c.level = 1
		c.decay = 1 / (0.08 * c.sampleRate)
	} else {
		c.freq = 880
		c.level = 0.55
		c.decay = 1 / (0.05 * c.sampleRate)
	}
}

func (c *Click) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	c.masterGain = gain
}

func (c *Click) RenderFrame() (float32, float32) {
	if c.env <= 0 {
		return 0, 0
	}
	s := math.Sin(c.phase*twoPi) * c.env * c.env * c.level * c.masterGain
	c.phase += c.freq / c.sampleRate
	if c.phase >= 1 {
		c.phase -= 1
	}
	c.env -= c.decay
	if c.env < 0 {
		c.env = 0
	}
	out := float32(s)
	return out, out
}
