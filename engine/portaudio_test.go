// SPDX-License-Identifier: EPL-2.0

//go:build cgo

package engine

import (
	"testing"

	"github.com/gordonklaus/portaudio"
)

func TestSameDevice(t *testing.T) {
	t.Parallel()

	alsa := &portaudio.HostApiInfo{Name: "ALSA"}
	jack := &portaudio.HostApiInfo{Name: "JACK"}

	def := &portaudio.DeviceInfo{Name: "HDA Intel", HostApi: alsa}
	sameName := &portaudio.DeviceInfo{Name: "HDA Intel", HostApi: jack}
	copied := &portaudio.DeviceInfo{Name: "HDA Intel", HostApi: &portaudio.HostApiInfo{Name: "ALSA"}}
	noHost := &portaudio.DeviceInfo{Name: "HDA Intel"}

	tests := []struct {
		name string
		a, b *portaudio.DeviceInfo
		want bool
	}{
		{"same pointer", def, def, true},
		{"same name other host api", sameName, def, false},
		{"equal copy", copied, def, true},
		{"no host api", noHost, def, false},
		{"no default", def, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := sameDevice(tt.a, tt.b); got != tt.want {
				t.Errorf("sameDevice() = %v, want %v", got, tt.want)
			}
		})
	}
}
