// SPDX-License-Identifier: EPL-2.0

package mixplayer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrLoad            = errors.New("failed to load track")
	ErrEngineInit      = errors.New("failed to initialize audio engine")
	ErrClosed          = errors.New("player closed")
	ErrNoTrack         = errors.New("no track loaded")

	// ErrDeviceIndexOutOfRange also matches ErrInvalidArgument.
	ErrDeviceIndexOutOfRange = fmt.Errorf("device index out of range: %w", ErrInvalidArgument)
)

// LoadError reports a track that could not be opened or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// EngineInitError reports an output device that could not be opened.
type EngineInitError struct {
	Backend string
	Device  string
	Err     error
}

func (e *EngineInitError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("audio engine %s: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("audio engine %s, device %q: %v", e.Backend, e.Device, e.Err)
}

func (e *EngineInitError) Unwrap() error { return e.Err }

func (e *EngineInitError) Is(target error) bool { return target == ErrEngineInit }
