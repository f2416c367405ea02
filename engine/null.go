// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ik5/mixplayer/formats/wav"
)

// NullName selects the backend that renders without a sound card.
const NullName = "null"

func init() {
	register(NullName, newNull)
}

// nullBackend renders on a ticker, with no audio device. Its single device
// accepts the default index and index 0.
type nullBackend struct {
	opts *options
	log  *log.Logger

	mtx     sync.Mutex
	writer  *wav.Writer
	streams map[*nullStream]struct{}
	closed  bool
}

func newNull(o *options) (Backend, error) {
	return &nullBackend{
		opts:    o,
		log:     o.logger,
		streams: make(map[*nullStream]struct{}),
	}, nil
}

func (b *nullBackend) Name() string { return NullName }

func (b *nullBackend) Devices() ([]Device, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}
	return []Device{{Index: 0, Name: NullName, Default: true}}, nil
}

func (b *nullBackend) Open(dev Device, f Format, fill FillFunc) (Stream, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}
	if dev.Index > 0 {
		return nil, fmt.Errorf("%w: index %d", ErrDeviceNotFound, dev.Index)
	}

	if b.opts.capture != nil && b.writer == nil {
		w, err := wav.NewWriter(b.opts.capture, f.SampleRate, f.Channels)
		if err != nil {
			return nil, fmt.Errorf("capture: %w", err)
		}
		b.writer = w
	}

	period := b.opts.period
	if period <= 0 {
		period = f.Period()
	}

	s := &nullStream{
		backend: b,
		fill:    fill,
		buf:     make([]float32, f.Samples()),
		period:  period,
		done:    make(chan struct{}),
	}
	b.streams[s] = struct{}{}
	return s, nil
}

// capture appends one rendered buffer to the WAV sink, if any.
func (b *nullBackend) capture(buf []float32) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.writer == nil {
		return
	}
	if err := b.writer.WriteFloat32(buf); err != nil {
		b.log.Error("capture write failed, disabling capture", "err", err)
		b.writer = nil
	}
}

func (b *nullBackend) Close() error {
	b.mtx.Lock()
	if b.closed {
		b.mtx.Unlock()
		return nil
	}
	b.closed = true
	streams := make([]*nullStream, 0, len(b.streams))
	for s := range b.streams {
		streams = append(streams, s)
	}
	b.mtx.Unlock()

	for _, s := range streams {
		_ = s.Close()
	}

	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.writer == nil {
		return nil
	}
	frames := b.writer.Frames()
	err := b.writer.Close()
	b.writer = nil
	if err != nil {
		return fmt.Errorf("closing capture: %w", err)
	}
	b.log.Debug("capture finalized", "frames", frames)
	return nil
}

type nullStream struct {
	backend *nullBackend
	fill    FillFunc
	buf     []float32
	period  time.Duration

	mtx     sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func (s *nullStream) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if s.started {
		return nil
	}
	s.started = true

	s.wg.Add(1)
	go s.loop()
	return nil
}

func (s *nullStream) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.fill(s.buf)
			s.backend.capture(s.buf)
		}
	}
}

// Close stops the render goroutine and waits for an in-flight fill.
func (s *nullStream) Close() error {
	s.mtx.Lock()
	if s.closed {
		s.mtx.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mtx.Unlock()

	s.wg.Wait()

	s.backend.mtx.Lock()
	delete(s.backend.streams, s)
	s.backend.mtx.Unlock()
	return nil
}
