// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  Format
		samples int
		period  time.Duration
	}{
		{name: "default", format: DefaultFormat, samples: 4096, period: 2048 * time.Second / 48000},
		{name: "mono", format: Format{SampleRate: 8000, Channels: 1, BufferFrames: 80}, samples: 80, period: 10 * time.Millisecond},
		{name: "zero rate", format: Format{Channels: 2, BufferFrames: 10}, samples: 20, period: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.format.Samples(); got != tt.samples {
				t.Errorf("Samples() = %d, want %d", got, tt.samples)
			}
			if got := tt.format.Period(); got != tt.period {
				t.Errorf("Period() = %v, want %v", got, tt.period)
			}
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	names := Names()
	for _, want := range []string{NullName, MalgoName, PortAudioName, OtoName} {
		if !slices.Contains(names, want) {
			t.Errorf("Names() = %v, missing %q", names, want)
		}
	}
	if !slices.IsSorted(names) {
		t.Errorf("Names() = %v, want sorted", names)
	}
}

func TestOpen_Unknown(t *testing.T) {
	t.Parallel()

	_, err := Open("pulse")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(pulse) error = %v, want ErrUnknownBackend", err)
	}
}
