// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/ik5/mixplayer/utils"
)

// maxEmptyReads bounds how many (0, nil) reads are tolerated from a source
// before giving up with io.ErrNoProgress.
const maxEmptyReads = 64

// posEpsilon absorbs the rounding drift of the accumulated read position.
const posEpsilon = 1e-6

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// A one-pole low-pass runs on the input when downsampling.
type Resampler struct {
	src      Source
	dstRate  int
	ratio    float64 // source frames per output frame
	channels int

	// window holds four consecutive source frames: t-1, t0, t+1, t+2.
	window [4][]float32
	valid  [4]bool
	primed bool
	pos    float64 // fractional position between window[1] and window[2]

	buf     []float32
	pending []float32
	eof     bool

	lowpass bool
	warm    bool
	alpha   float32
	state   []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		ratio:    ratio,
		channels: channels,
		buf:      make([]float32, max(4096-4096%channels, channels)),
		lowpass:  ratio > 1.0,
		alpha:    0.5,
		state:    make([]float32, channels),
	}
	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}

	return r
}

// Resample returns src unchanged when it already runs at dstRate, and a
// Resampler otherwise.
func Resample(src Source, dstRate int) Source {
	if src.SampleRate() == dstRate {
		return src
	}
	return NewResampler(src, dstRate)
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

// Frames estimates the output length from the source length.
func (r *Resampler) Frames() int64 {
	n := FramesOf(r.src)
	if n <= 0 {
		return n
	}
	return int64(math.Floor(float64(n-1)/r.ratio+posEpsilon)) + 1
}

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resampler: %w", err)
	}
	return nil
}

// nextFrame copies the next source frame into into, filtering it when
// downsampling. It returns false once the source is exhausted.
func (r *Resampler) nextFrame(into []float32) (bool, error) {
	empty := 0
	for len(r.pending) < r.channels {
		if r.eof {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.buf)
		r.pending = r.buf[:n-n%r.channels]
		switch {
		case err == io.EOF:
			r.eof = true
		case err != nil:
			return false, fmt.Errorf("resampler: %w", err)
		case n == 0:
			empty++
			if empty >= maxEmptyReads {
				return false, io.ErrNoProgress
			}
		}
	}

	copy(into, r.pending[:r.channels])
	r.pending = r.pending[r.channels:]

	if r.lowpass {
		if !r.warm {
			copy(r.state, into)
			r.warm = true
		}
		for c := range into {
			into[c] = r.alpha*into[c] + (1-r.alpha)*r.state[c]
			r.state[c] = into[c]
		}
	}

	return true, nil
}

// prime fills the window so that window[1] is the first source frame.
func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.nextFrame(r.window[1])
	if err != nil || !ok {
		return err
	}
	copy(r.window[0], r.window[1])
	r.valid[0], r.valid[1] = true, true

	for i := 2; i < 4; i++ {
		if r.valid[i], err = r.nextFrame(r.window[i]); err != nil {
			return err
		}
	}
	return nil
}

// advance shifts the window one source frame forward.
func (r *Resampler) advance() error {
	first := r.window[0]
	copy(r.window[:], r.window[1:])
	r.window[3] = first
	copy(r.valid[:], r.valid[1:])

	ok, err := r.nextFrame(r.window[3])
	r.valid[3] = ok
	return err
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	frames := len(dst) / r.channels
	written := 0

	for written < frames {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		if !r.valid[1] {
			return written * r.channels, io.EOF
		}

		out := dst[written*r.channels : (written+1)*r.channels]
		switch {
		case r.valid[2]:
			r.interpolate(out, float32(r.pos))
		case r.pos < posEpsilon:
			// last source frame falls exactly on an output frame
			copy(out, r.window[1])
		default:
			return written * r.channels, io.EOF
		}

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}

func (r *Resampler) interpolate(out []float32, x float32) {
	prev, cur, next, after := r.window[0], r.window[1], r.window[2], r.window[3]
	if !r.valid[0] {
		prev = cur
	}
	if !r.valid[3] {
		after = next
	}

	for c := range out {
		out[c] = utils.CubicInterpolate(prev[c], cur[c], next[c], after[c], x)
	}
}
