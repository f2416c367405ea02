// SPDX-License-Identifier: EPL-2.0

package mixplayer

import (
	"sync"
	"time"
)

// voice is the render state shared with the audio thread. Every field is
// guarded by mtx, which render holds only for one buffer.
type voice struct {
	mtx sync.Mutex

	track   *track
	pos     int // frames
	playing bool
	ended   bool
	volume  float32

	// fade ramp: gain rises linearly over fadeLen frames
	fadeLen int
	fadePos int

	// notify is called once per playthrough, outside mtx.
	notify func()
}

func newVoice(notify func()) *voice {
	return &voice{volume: 1, notify: notify}
}

// render fills out from the current position. It never blocks on anything
// but mtx.
func (v *voice) render(out []float32) {
	v.mtx.Lock()

	if v.track == nil || !v.playing {
		v.mtx.Unlock()
		clear(out)
		return
	}

	t := v.track
	ch := t.channels
	frames := min(len(out)/ch, t.frames()-v.pos)
	src := t.samples[v.pos*ch : (v.pos+frames)*ch]

	for f := range frames {
		gain := v.volume
		if v.fadePos < v.fadeLen {
			gain *= float32(v.fadePos) / float32(v.fadeLen)
			v.fadePos++
		}
		for c := range ch {
			out[f*ch+c] = src[f*ch+c] * gain
		}
	}
	clear(out[frames*ch:])
	v.pos += frames

	var notify func()
	if v.pos >= t.frames() {
		v.playing = false
		v.ended = true
		notify = v.notify
	}
	v.mtx.Unlock()

	if notify != nil {
		notify()
	}
}

// load swaps in t and starts it from the first frame.
func (v *voice) load(t *track, fadeFrames int) {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	v.track = t
	v.restart(fadeFrames)
}

func (v *voice) rewind(fadeFrames int) {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	if v.track != nil {
		v.restart(fadeFrames)
	}
}

func (v *voice) restart(fadeFrames int) {
	v.pos = 0
	v.playing = true
	v.ended = false
	v.fadeLen = fadeFrames
	v.fadePos = 0
}

func (v *voice) pause() {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	v.playing = false
}

// resume continues a paused track, or a finished one that was seeked back
// inside its length.
func (v *voice) resume() {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	if v.track == nil || v.playing {
		return
	}
	if v.ended {
		if v.pos >= v.track.frames() {
			return
		}
		v.ended = false
	}
	v.playing = true
}

func (v *voice) seek(d time.Duration) {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	if v.track != nil {
		v.pos = v.track.toFrames(d)
	}
}

func (v *voice) setVolume(gain float32) {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	v.volume = gain
}

func (v *voice) gain() float32 {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	return v.volume
}

func (v *voice) state() State {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	switch {
	case v.track == nil:
		return Unloaded
	case v.ended:
		return Ended
	case v.playing:
		return Playing
	}
	return Paused
}

func (v *voice) position() time.Duration {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	if v.track == nil {
		return 0
	}
	return v.track.toDuration(v.pos)
}

func (v *voice) duration() time.Duration {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	if v.track == nil {
		return 0
	}
	return v.track.duration()
}

// current returns the loaded track, if any.
func (v *voice) current() *track {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	return v.track
}

// release drops the track and silences the voice for good.
func (v *voice) release() {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	v.track = nil
	v.playing = false
	v.ended = false
	v.pos = 0
	v.notify = nil
}
