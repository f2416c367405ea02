// SPDX-License-Identifier: EPL-2.0

package mixplayer

import (
	"github.com/charmbracelet/log"

	"github.com/ik5/mixplayer/audio"
	"github.com/ik5/mixplayer/engine"
)

// DefaultInboxSize is the number of undelivered end notifications kept
// before new ones are dropped.
const DefaultInboxSize = 3

type options struct {
	logger     *log.Logger
	registry   *audio.Registry
	inbox      int
	device     int
	format     engine.Format
	engineOpts []engine.Option
}

func defaultOptions() *options {
	return &options{
		logger: log.Default().WithPrefix("mixplayer"),
		inbox:  DefaultInboxSize,
		device: -1,
		format: engine.DefaultFormat,
	}
}

// Option configures a Player in New and Open.
type Option func(*options)

// WithLogger sets the logger for the player and its relay. Nil is ignored.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegistry replaces the decoders used by Load.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithInboxSize sets the depth of the end notification relay. Values below
// one are ignored.
func WithInboxSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.inbox = n
		}
	}
}

// WithDevice opens the device at index instead of the system default. An
// index of -1 keeps the default; anything lower makes New fail with
// ErrDeviceIndexOutOfRange.
func WithDevice(index int) Option {
	return func(o *options) { o.device = index }
}

// WithFormat overrides engine.DefaultFormat. Tracks are converted to it at
// load time.
func WithFormat(f engine.Format) Option {
	return func(o *options) {
		if f.SampleRate > 0 && f.Channels > 0 && f.BufferFrames > 0 {
			o.format = f
		}
	}
}

// WithEngineOptions passes options to engine.Open when the player creates
// its own backend through Open.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}
