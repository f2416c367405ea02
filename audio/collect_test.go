// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"io"
	"testing"

	"github.com/ik5/mixplayer/audio"
	"github.com/ik5/mixplayer/internal/audiotest"
)

func TestCollect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		frames  int
		bufSize int
	}{
		{name: "empty", frames: 0, bufSize: 64},
		{name: "shorter than buffer", frames: 10, bufSize: 64},
		{name: "exact multiple", frames: 64, bufSize: 32},
		{name: "odd buffer rounded down", frames: 100, bufSize: 33},
		{name: "tiny buffer", frames: 5, bufSize: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := audio.Collect(audiotest.NewChannelSource(8000, 2, tt.frames), tt.bufSize)
			if err != nil {
				t.Fatalf("Collect() error = %v", err)
			}
			if len(out) != tt.frames*2 {
				t.Fatalf("len = %d, want %d", len(out), tt.frames*2)
			}
			for i, v := range out {
				if want := float32(i%2 + 1); v != want {
					t.Fatalf("sample %d = %v, want %v", i, v, want)
				}
			}
		})
	}
}

func TestCollect_Error(t *testing.T) {
	t.Parallel()

	_, err := audio.Collect(audiotest.NewSilentSource(8000, 1, 100).FailAfter(10), 4)
	if !errors.Is(err, audiotest.ErrInjected) {
		t.Errorf("Collect() error = %v, want ErrInjected", err)
	}
}

// stalled never produces samples nor an error.
type stalled struct{ *audiotest.MockSource }

func (stalled) ReadSamples([]float32) (int, error) { return 0, nil }

func TestCollect_NoProgress(t *testing.T) {
	t.Parallel()

	_, err := audio.Collect(stalled{audiotest.NewSilentSource(8000, 1, 1)}, 16)
	if !errors.Is(err, io.ErrNoProgress) {
		t.Errorf("Collect() error = %v, want io.ErrNoProgress", err)
	}
}
