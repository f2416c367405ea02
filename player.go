// SPDX-License-Identifier: EPL-2.0

package mixplayer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ik5/mixplayer/audio"
	"github.com/ik5/mixplayer/engine"
)

// Player owns one output stream and at most one current track.
//
// Controller methods are meant to be called from one goroutine at a time.
// End-of-track listeners run on whichever goroutine calls DispatchEvents,
// Run or Wait, never on the audio thread.
type Player struct {
	backend  engine.Backend
	format   engine.Format
	registry *audio.Registry
	log      *log.Logger
	relay    *relay
	voice    *voice

	mtx    sync.Mutex
	stream engine.Stream
	device engine.Device
	fade   time.Duration
	closed bool
}

// New opens the default output device of b, or the one chosen with
// WithDevice. On success the player owns b and closes it in Close; on
// failure b is left open for the caller.
func New(b engine.Backend, opts ...Option) (*Player, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrInvalidArgument)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}

	p := &Player{
		backend:  b,
		format:   o.format,
		registry: o.registry,
		log:      o.logger,
		relay:    newRelay(o.inbox, o.logger),
		device:   engine.DefaultDevice,
	}
	p.voice = newVoice(func() { p.relay.post() })

	if o.device < -1 {
		return nil, fmt.Errorf("%w: %d", ErrDeviceIndexOutOfRange, o.device)
	}
	if o.device >= 0 {
		devices, err := b.Devices()
		if err != nil {
			return nil, &EngineInitError{Backend: b.Name(), Err: err}
		}
		if o.device >= len(devices) {
			return nil, fmt.Errorf("%w: %d of %d", ErrDeviceIndexOutOfRange, o.device, len(devices))
		}
		p.device = devices[o.device]
	}

	stream, err := p.openStream(p.device)
	if err != nil {
		return nil, err
	}
	p.stream = stream

	p.log.Debug("player ready", "backend", b.Name(), "device", p.device.Name,
		"rate", p.format.SampleRate, "channels", p.format.Channels)
	return p, nil
}

// Open creates the named backend and a player on it. The backend is closed
// again if the player cannot start.
func Open(backend string, opts ...Option) (*Player, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	engineOpts := append([]engine.Option{engine.WithLogger(o.logger)}, o.engineOpts...)
	b, err := engine.Open(backend, engineOpts...)
	if err != nil {
		return nil, &EngineInitError{Backend: backend, Err: err}
	}

	p, err := New(b, opts...)
	if err != nil {
		if cerr := b.Close(); cerr != nil {
			o.logger.Warn("closing backend after failed start", "err", cerr)
		}
		return nil, err
	}
	return p, nil
}

func (p *Player) openStream(dev engine.Device) (engine.Stream, error) {
	stream, err := p.backend.Open(dev, p.format, p.voice.render)
	if err != nil {
		return nil, &EngineInitError{Backend: p.backend.Name(), Device: dev.Name, Err: err}
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, &EngineInitError{Backend: p.backend.Name(), Device: dev.Name, Err: err}
	}
	return stream, nil
}

// Load decodes the file at path and starts playing it with the current
// fade-in. The previous track keeps playing if loading fails.
func (p *Player) Load(path string) error {
	if p.isClosed() {
		return ErrClosed
	}
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	format, src, err := p.registry.Open(f, path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}

	return p.load(path, format, src)
}

// LoadSource is Load for an already opened source. src is closed once it has
// been decoded.
func (p *Player) LoadSource(name string, src audio.Source) error {
	if p.isClosed() {
		return ErrClosed
	}
	if src == nil {
		return fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}

	return p.load(name, "source", src)
}

func (p *Player) load(name, format string, src audio.Source) error {
	t, err := decodeTrack(name, format, src, p.format)
	if err != nil {
		return &LoadError{Path: name, Err: err}
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.voice.load(t, p.fadeFrames())

	p.log.Info("track loaded", "track", name, "format", format, "duration", t.duration(), "fade", p.fade)
	return nil
}

func (p *Player) fadeFrames() int {
	return framesIn(p.fade, p.format.SampleRate)
}

// Play resumes a paused track. It is the same as Resume.
func (p *Player) Play() error { return p.Resume() }

// Resume continues a paused track. A finished track that was seeked back
// before its end plays on from there. Otherwise it does nothing.
func (p *Player) Resume() error {
	if p.isClosed() {
		return ErrClosed
	}
	p.voice.resume()
	return nil
}

// Pause holds the current position. It does nothing without a playing
// track.
func (p *Player) Pause() error {
	if p.isClosed() {
		return ErrClosed
	}
	p.voice.pause()
	return nil
}

// Rewind restarts the track from the beginning with the current fade-in.
func (p *Player) Rewind() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.voice.rewind(p.fadeFrames())
	return nil
}

// Seek moves to d, clamped to the track length. Playback state is kept.
func (p *Player) Seek(d time.Duration) error {
	if p.isClosed() {
		return ErrClosed
	}
	p.voice.seek(d)
	return nil
}

// SetFadeIn sets the fade-in used by the next Load or Rewind. A running fade
// keeps its length.
func (p *Player) SetFadeIn(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: negative fade %v", ErrInvalidArgument, d)
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.fade = d
	return nil
}

// FadeIn returns the fade-in applied on the next Load or Rewind.
func (p *Player) FadeIn() time.Duration {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.fade
}

// Position is the playback position of the current track.
func (p *Player) Position() time.Duration { return p.voice.position() }

// Duration is the length of the current track.
func (p *Player) Duration() time.Duration { return p.voice.duration() }

// Volume returns the linear gain in [0, 1].
func (p *Player) Volume() float64 {
	if p.isClosed() {
		return 0
	}
	return float64(p.voice.gain())
}

// SetVolume sets the linear gain. It applies from the next buffer.
func (p *Player) SetVolume(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return fmt.Errorf("%w: volume %v outside [0, 1]", ErrInvalidArgument, v)
	}
	if p.isClosed() {
		return ErrClosed
	}
	p.voice.setVolume(float32(v))
	return nil
}

// IsPlaying reports whether a loaded track is audible right now.
func (p *Player) IsPlaying() bool { return p.State() == Playing }

// State returns the playback state of the current track.
func (p *Player) State() State { return p.voice.state() }

// TrackName is the path or name the current track was loaded from.
func (p *Player) TrackName() string {
	if t := p.voice.current(); t != nil {
		return t.name
	}
	return ""
}

// Devices lists the output devices of the backend at call time.
func (p *Player) Devices() ([]engine.Device, error) {
	if p.isClosed() {
		return nil, ErrClosed
	}

	devices, err := p.backend.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return devices, nil
}

// Device is the device the output stream is open on.
func (p *Player) Device() engine.Device {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.device
}

// SelectDevice moves the output to the device at index. An index outside
// the current device list leaves the open device untouched. If the new
// device cannot be opened the previous one is reopened and an
// *EngineInitError is returned.
func (p *Player) SelectDevice(index int) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		return ErrClosed
	}

	devices, err := p.backend.Devices()
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}
	if index < 0 || index >= len(devices) {
		return fmt.Errorf("%w: %d of %d", ErrDeviceIndexOutOfRange, index, len(devices))
	}
	dev := devices[index]

	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			p.log.Warn("closing stream", "device", p.device.Name, "err", err)
		}
		p.stream = nil
	}

	stream, err := p.openStream(dev)
	if err == nil {
		p.log.Info("output device changed", "from", p.device.Name, "to", dev.Name)
		p.stream, p.device = stream, dev
		return nil
	}

	p.log.Warn("device failed to open, reverting", "device", dev.Name, "err", err)
	previous, perr := p.openStream(p.device)
	if perr != nil {
		p.log.Error("previous device failed to reopen", "device", p.device.Name, "err", perr)
		return errors.Join(err, perr)
	}
	p.stream = previous
	return err
}

// OnEnd registers fn as the single end-of-track listener, replacing any
// previous one.
func (p *Player) OnEnd(fn func()) error {
	if fn == nil {
		return fmt.Errorf("%w: nil listener", ErrInvalidArgument)
	}
	if p.isClosed() {
		return ErrClosed
	}
	p.relay.setListener(fn)
	return nil
}

// ClearOnEnd removes the end-of-track listener.
func (p *Player) ClearOnEnd() { p.relay.setListener(nil) }

// DispatchEvents delivers pending end notifications on the calling
// goroutine without blocking and returns how many there were.
func (p *Player) DispatchEvents() int { return p.relay.dispatch() }

// Run delivers end notifications as they arrive until ctx is done or the
// player is closed. It returns ctx.Err() or nil.
func (p *Player) Run(ctx context.Context) error { return p.relay.run(ctx) }

// Wait blocks until the next end notification has been delivered.
func (p *Player) Wait(ctx context.Context) error {
	if p.isClosed() {
		return ErrClosed
	}
	if p.voice.state() == Unloaded {
		return ErrNoTrack
	}
	return p.relay.wait(ctx)
}

// Close stops the output and releases the track and backend. Calling it
// again does nothing.
func (p *Player) Close() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	// late posts from the audio thread become no-ops before the stream goes
	p.relay.abort()

	var errs []error
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing stream: %w", err))
		}
		p.stream = nil
	}
	if err := p.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing backend: %w", err))
	}
	p.voice.release()

	p.log.Debug("player closed")
	return errors.Join(errs...)
}

func (p *Player) isClosed() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.closed
}
