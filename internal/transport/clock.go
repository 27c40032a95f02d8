// Package transport implements a musical-time transport: a beat-domain
// clock that fires scheduled callbacks as sample-driven time advances and
// wraps over a loop region.
package transport

import "sort"

// Callback is invoked when the transport reaches an event's trigger point.
// Callbacks run on the audio render path; they must be brief and must not
// call back into the clock.
type Callback func()

type event struct {
	beat  float64 // nominal offset in beats from loop start
	lead  float64 // seconds fired ahead of the nominal beat
	trig  float64 // beat position at which the callback actually fires
	fn    Callback
	fired bool
}

// Clock converts elapsed samples into beat positions and dispatches
// scheduled callbacks. All offsets are musical time, so a tempo change
// never requires rescheduling.
type Clock struct {
	sampleRate float64
	bpm        float64
	pos        float64 // current position in beats
	loopBeats  float64 // 0 = no loop
	running    bool
	events     []event
	next       int // index of the first event not yet fired this pass
	dirty      bool
}

func New(sampleRate int) *Clock {
	return &Clock{sampleRate: float64(sampleRate), bpm: 120}
}

// SetTempo changes the playback rate. Scheduled beat offsets are unchanged;
// only the lead compensation (which lives in wall-clock seconds) is
// re-expressed in beats.
func (c *Clock) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	c.bpm = bpm
	for i := range c.events {
		c.events[i].trig = triggerBeat(c.events[i].beat, c.events[i].lead, bpm)
	}
	c.dirty = true
}

func (c *Clock) Tempo() float64 { return c.bpm }

// Pos returns the current transport position in beats from loop start.
func (c *Clock) Pos() float64 { return c.pos }

func (c *Clock) Running() bool { return c.running }

// triggerBeat converts a lead in seconds into the beat position at which an
// event actually fires. Events never trigger before the loop start.
func triggerBeat(beat, leadSeconds, bpm float64) float64 {
	trig := beat - leadSeconds*bpm/60
	if trig < 0 {
		trig = 0
	}
	return trig
}

// Schedule registers a callback at a beat offset. leadSeconds fires the
// callback ahead of its nominal position; registration order is preserved
// for events with equal trigger positions.
func (c *Clock) Schedule(beat, leadSeconds float64, fn Callback) {
	c.events = append(c.events, event{
		beat: beat,
		lead: leadSeconds,
		trig: triggerBeat(beat, leadSeconds, c.bpm),
		fn:   fn,
	})
	c.dirty = true
}

// CancelAll drops every scheduled callback.
func (c *Clock) CancelAll() {
	c.events = c.events[:0]
	c.next = 0
	c.dirty = false
}

// SetLoop sets the loop length in beats. Zero disables looping.
func (c *Clock) SetLoop(beats float64) {
	c.loopBeats = beats
}

func (c *Clock) Loop() float64 { return c.loopBeats }

// Start begins advancing from the current position.
func (c *Clock) Start() { c.running = true }

// Stop halts the transport and rewinds it to beat zero.
func (c *Clock) Stop() {
	c.running = false
	c.pos = 0
	c.rewind()
}

// CatchUp marks every event whose trigger point is already behind the
// current position as fired, so a reschedule mid-pass does not replay the
// elapsed part of the loop.
func (c *Clock) CatchUp() {
	c.sortIfDirty()
	for c.next < len(c.events) && c.events[c.next].trig < c.pos {
		c.events[c.next].fired = true
		c.next++
	}
}

// Advance moves the transport forward by a number of samples, firing due
// callbacks in trigger order and wrapping at the loop boundary.
func (c *Clock) Advance(frames int) {
	if !c.running {
		return
	}
	c.sortIfDirty()
	beatsPerFrame := c.bpm / 60 / c.sampleRate
	for f := 0; f < frames; f++ {
		c.pos += beatsPerFrame
		c.fireDue()
		if c.loopBeats > 0 && c.pos >= c.loopBeats {
			c.pos -= c.loopBeats
			c.rewind()
			c.fireDue()
		}
	}
}

func (c *Clock) fireDue() {
	for c.next < len(c.events) {
		e := &c.events[c.next]
		if e.trig > c.pos {
			return
		}
		e.fired = true
		c.next++
		e.fn()
	}
}

func (c *Clock) rewind() {
	for i := range c.events {
		c.events[i].fired = false
	}
	c.next = 0
}

func (c *Clock) sortIfDirty() {
	if !c.dirty {
		return
	}
	sort.SliceStable(c.events, func(i, j int) bool {
		return c.events[i].trig < c.events[j].trig
	})
	// Re-derive the cursor: fired events sort is stable, but a reschedule
	// always starts from an empty set, so unfired events follow the cursor.
	c.next = 0
	for c.next < len(c.events) && c.events[c.next].fired {
		c.next++
	}
	c.dirty = false
}
