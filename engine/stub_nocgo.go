// SPDX-License-Identifier: EPL-2.0

//go:build !cgo

package engine

// DefaultName is the backend Open falls back to for an empty name.
const DefaultName = NullName

// Names of the cgo backends, registered as stubs that fail to open.
const (
	MalgoName     = "malgo"
	PortAudioName = "portaudio"
	OtoName       = "oto"
)

func init() {
	for _, name := range []string{MalgoName, PortAudioName, OtoName} {
		register(name, unavailable)
	}
}

func unavailable(*options) (Backend, error) {
	return nil, ErrBackendUnavailable
}
