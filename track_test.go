// SPDX-License-Identifier: EPL-2.0

package mixplayer

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ik5/mixplayer/engine"
	"github.com/ik5/mixplayer/internal/audiotest"
)

func TestDecodeTrack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rate       int
		channels   int
		frames     int
		wantFrames int
	}{
		{"output format", 48000, 2, 4800, 4800},
		{"mono upmix", 48000, 1, 480, 480},
		{"resampled", 24000, 2, 2400, 4799},
		{"empty", 48000, 2, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewConstantSource(tt.rate, tt.channels, tt.frames, 0.25)
			tr, err := decodeTrack("tone", "pcm", src, engine.DefaultFormat)
			if err != nil {
				t.Fatalf("decodeTrack() error = %v", err)
			}

			if !src.Closed() {
				t.Error("source left open")
			}
			if tr.channels != 2 || tr.rate != 48000 {
				t.Errorf("track format %d Hz %d ch, want 48000 Hz 2 ch", tr.rate, tr.channels)
			}
			if got := tr.frames(); got != tt.wantFrames {
				t.Errorf("frames() = %d, want %d", got, tt.wantFrames)
			}
		})
	}
}

func TestDecodeTrack_Errors(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(48000, 2, 4800, 0.25).FailAfter(100)
	if _, err := decodeTrack("bad", "pcm", src, engine.DefaultFormat); !errors.Is(err, audiotest.ErrInjected) {
		t.Errorf("decodeTrack() error = %v, want ErrInjected", err)
	}
	if !src.Closed() {
		t.Error("source left open after failure")
	}

	zero := audiotest.NewConstantSource(0, 2, 10, 0)
	if _, err := decodeTrack("zero", "pcm", zero, engine.DefaultFormat); err == nil {
		t.Error("decodeTrack() accepted a zero sample rate")
	}
}

func TestTrack_Time(t *testing.T) {
	t.Parallel()

	tr := newTestTrack(1500, 2, 0)

	if got := tr.duration(); got != 1500*time.Millisecond {
		t.Errorf("duration() = %v, want 1.5s", got)
	}
	if got := tr.toDuration(250); got != 250*time.Millisecond {
		t.Errorf("toDuration(250) = %v, want 250ms", got)
	}

	frames := []struct {
		d    time.Duration
		want int
	}{
		{-time.Millisecond, 0},
		{0, 0},
		{time.Millisecond, 1},
		{1499 * time.Millisecond, 1499},
		{1500 * time.Millisecond, 1500},
		{time.Hour, 1500},
	}
	for _, tt := range frames {
		if got := tr.toFrames(tt.d); got != tt.want {
			t.Errorf("toFrames(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestFramesIn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		rate int
		want int
	}{
		{0, 48000, 0},
		{time.Second, 48000, 48000},
		{1500 * time.Millisecond, 44100, 66150},
		{time.Microsecond, 48000, 0},
		{21 * time.Microsecond, 48000, 1},
		{1000 * time.Hour, 48000, 172_800_000_000},
		{math.MaxInt64, 48000, 442_721_857_769_029},
	}

	for _, tt := range tests {
		if got := framesIn(tt.d, tt.rate); got != tt.want {
			t.Errorf("framesIn(%v, %d) = %d, want %d", tt.d, tt.rate, got, tt.want)
		}
	}
}
