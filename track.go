// SPDX-License-Identifier: EPL-2.0

package mixplayer

import (
	"fmt"
	"time"

	"github.com/ik5/mixplayer/audio"
	"github.com/ik5/mixplayer/engine"
)

// track is a decoded resource held in memory in the output format.
type track struct {
	name     string
	format   string
	samples  []float32
	rate     int
	channels int
}

// decodeTrack drains src through the conversion pipeline:
//  1. Resamples to the output rate using cubic interpolation
//  2. Converts the channel layout to the output layout
//  3. Collects everything as interleaved float32
//
// src is closed in all cases.
func decodeTrack(name, format string, src audio.Source, f engine.Format) (*track, error) {
	defer src.Close()

	if src.SampleRate() <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", src.SampleRate())
	}

	converted, err := audio.Remix(audio.Resample(src, f.SampleRate), f.Channels)
	if err != nil {
		return nil, err
	}

	samples, err := audio.Collect(converted, max(src.BufSize(), f.Samples()))
	if err != nil {
		return nil, err
	}

	return &track{
		name:     name,
		format:   format,
		samples:  samples,
		rate:     f.SampleRate,
		channels: f.Channels,
	}, nil
}

func (t *track) frames() int { return len(t.samples) / t.channels }

func (t *track) duration() time.Duration { return t.toDuration(t.frames()) }

func (t *track) toDuration(frames int) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(t.rate)
}

// toFrames converts d to a frame offset clamped to the track.
func (t *track) toFrames(d time.Duration) int {
	switch {
	case d <= 0:
		return 0
	case d >= t.duration():
		return t.frames()
	}
	return framesIn(d, t.rate)
}

// framesIn is the number of whole frames d spans at rate. Whole seconds and
// the remainder are scaled apart so long durations do not overflow.
func framesIn(d time.Duration, rate int) int {
	sec, rem := d/time.Second, d%time.Second
	return int(sec)*rate + int(rem*time.Duration(rate)/time.Second)
}
