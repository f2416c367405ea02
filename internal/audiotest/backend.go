// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"fmt"
	"sync"

	"github.com/ik5/mixplayer/engine"
)

// FakeBackend is an in-memory engine.Backend. Nothing renders on its own;
// tests drive the fill callback with FakeStream.Pump.
type FakeBackend struct {
	mtx     sync.Mutex
	devices []engine.Device
	fail    map[int]error
	opened  []*FakeStream
	closed  bool
}

// NewFakeBackend creates a backend with one device per name. The first
// device is the default.
func NewFakeBackend(names ...string) *FakeBackend {
	if len(names) == 0 {
		names = []string{"fake"}
	}

	devices := make([]engine.Device, len(names))
	for i, name := range names {
		devices[i] = engine.Device{Index: i, Name: name, Default: i == 0}
	}
	return &FakeBackend{devices: devices, fail: make(map[int]error)}
}

// FailOpen makes every later Open of device index fail with err. A nil err
// clears the failure.
func (b *FakeBackend) FailOpen(index int, err error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if err == nil {
		delete(b.fail, index)
		return
	}
	b.fail[index] = err
}

func (b *FakeBackend) Name() string { return "fake" }

func (b *FakeBackend) Devices() ([]engine.Device, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil, engine.ErrBackendClosed
	}
	return append([]engine.Device(nil), b.devices...), nil
}

func (b *FakeBackend) Open(dev engine.Device, f engine.Format, fill engine.FillFunc) (engine.Stream, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil, engine.ErrBackendClosed
	}

	index := dev.Index
	if index < 0 {
		index = 0
	}
	if index >= len(b.devices) {
		return nil, fmt.Errorf("%w: index %d", engine.ErrDeviceNotFound, index)
	}
	if err := b.fail[index]; err != nil {
		return nil, err
	}

	s := &FakeStream{Device: b.devices[index], Format: f, fill: fill}
	b.opened = append(b.opened, s)
	return s, nil
}

func (b *FakeBackend) Close() error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *FakeBackend) Closed() bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return b.closed
}

// Opened lists every stream opened so far, oldest first.
func (b *FakeBackend) Opened() []*FakeStream {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return append([]*FakeStream(nil), b.opened...)
}

// Current returns the most recently opened stream that is still open.
func (b *FakeBackend) Current() *FakeStream {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	for i := len(b.opened) - 1; i >= 0; i-- {
		if !b.opened[i].Closed() {
			return b.opened[i]
		}
	}
	return nil
}

// FakeStream records its lifecycle and exposes the fill callback.
type FakeStream struct {
	Device engine.Device
	Format engine.Format

	fill engine.FillFunc

	mtx     sync.Mutex
	started bool
	closed  bool
}

func (s *FakeStream) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return engine.ErrStreamClosed
	}
	s.started = true
	return nil
}

func (s *FakeStream) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.closed = true
	return nil
}

func (s *FakeStream) Started() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.started
}

func (s *FakeStream) Closed() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.closed
}

// Pump renders buffers buffers of the stream format on a separate
// goroutine, the way an audio thread would, and returns the concatenated
// output. A stream that is not running renders nothing.
func (s *FakeStream) Pump(buffers int) []float32 {
	s.mtx.Lock()
	running := s.started && !s.closed
	s.mtx.Unlock()
	if !running {
		return nil
	}

	return s.Render(buffers)
}

// Render calls the fill callback regardless of the stream state, standing
// in for a callback that races Close.
func (s *FakeStream) Render(buffers int) []float32 {
	out := make([]float32, 0, buffers*s.Format.Samples())
	done := make(chan struct{})

	go func() {
		defer close(done)
		buf := make([]float32, s.Format.Samples())
		for range buffers {
			s.fill(buf)
			out = append(out, buf...)
		}
	}()

	<-done
	return out
}
