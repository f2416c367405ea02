// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Format describes the PCM layout a stream is opened with. Samples are
// always float32.
type Format struct {
	SampleRate   int
	Channels     int
	BufferFrames int
}

// DefaultFormat is the output format of the player.
var DefaultFormat = Format{SampleRate: 48000, Channels: 2, BufferFrames: 2048}

// Samples is the number of interleaved values in one buffer.
func (f Format) Samples() int { return f.BufferFrames * f.Channels }

// Period is the playback time of one buffer.
func (f Format) Period() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.BufferFrames) * time.Second / time.Duration(f.SampleRate)
}

// Device is an output device as reported by a backend. Index is the
// position in the backend's device list; a negative index selects the
// system default.
type Device struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// DefaultDevice asks the backend for its system default output.
var DefaultDevice = Device{Index: -1, Name: "default", Default: true}

// FillFunc renders the next buffer. It runs on the backend's audio thread.
type FillFunc func(out []float32)

// Stream is an open output device pulling buffers from a FillFunc.
type Stream interface {
	Start() error
	Close() error
}

// Backend is an audio output library that can enumerate and open devices.
type Backend interface {
	Name() string
	// Devices lists output devices at call time.
	Devices() ([]Device, error)
	Open(dev Device, f Format, fill FillFunc) (Stream, error)
	Close() error
}

type options struct {
	logger  *log.Logger
	capture io.WriteSeeker
	period  time.Duration
}

// Option configures a Backend in Open.
type Option func(*options)

// WithLogger sets the logger used by the backend.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCapture makes the null backend record everything it renders as a
// 16-bit WAV file. Other backends ignore it.
func WithCapture(ws io.WriteSeeker) Option {
	return func(o *options) { o.capture = ws }
}

// WithPeriod overrides the tick of the null backend, which otherwise
// follows the buffer period of the stream format.
func WithPeriod(d time.Duration) Option {
	return func(o *options) { o.period = d }
}

type factory func(o *options) (Backend, error)

var (
	factoriesMtx sync.Mutex
	factories    = map[string]factory{}
)

func register(name string, f factory) {
	factoriesMtx.Lock()
	defer factoriesMtx.Unlock()

	factories[name] = f
}

// Names lists the registered backends, including stubs.
func Names() []string {
	factoriesMtx.Lock()
	defer factoriesMtx.Unlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open initializes the named backend. An empty name selects DefaultName.
func Open(name string, opts ...Option) (Backend, error) {
	o := &options{logger: log.Default().WithPrefix("engine")}
	for _, opt := range opts {
		opt(o)
	}

	if name == "" {
		name = DefaultName
	}

	factoriesMtx.Lock()
	f, ok := factories[name]
	factoriesMtx.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	b, err := f(o)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", name, err)
	}

	o.logger.Debug("backend initialized", "backend", name)
	return b, nil
}
