// SPDX-License-Identifier: EPL-2.0

//go:build cgo

package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/ik5/mixplayer/utils"
)

// OtoName selects the oto backend.
const OtoName = "oto"

// oto allows a single context per process, created on first use and kept
// for the life of the program.
var (
	otoOnce   sync.Once
	otoCtx    *oto.Context
	otoFormat Format
	otoErr    error
)

const otoReadyTimeout = 5 * time.Second

func init() {
	register(OtoName, newOto)
}

func otoContext(f Format, logger *log.Logger) (*oto.Context, error) {
	otoOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   f.Period(),
		}

		logger.Debug("Initializing oto context",
			"sample_rate", options.SampleRate,
			"channels", options.ChannelCount,
			"buffer_size", options.BufferSize)

		ctx, ready, err := oto.NewContext(options)
		if err != nil {
			otoErr = fmt.Errorf("failed to create audio context: %w", err)
			return
		}

		select {
		case <-ready:
			otoCtx, otoFormat = ctx, f
		case <-time.After(otoReadyTimeout):
			otoErr = fmt.Errorf("audio context initialization timeout after %v", otoReadyTimeout)
		}
	})

	if otoErr != nil {
		return nil, otoErr
	}
	if f.SampleRate != otoFormat.SampleRate || f.Channels != otoFormat.Channels {
		return nil, fmt.Errorf("%w: %d Hz %d ch, running %d Hz %d ch", ErrFormatMismatch,
			f.SampleRate, f.Channels, otoFormat.SampleRate, otoFormat.Channels)
	}
	return otoCtx, nil
}

// otoBackend exposes the shared context as one device.
type otoBackend struct {
	log *log.Logger

	mtx    sync.Mutex
	closed bool
}

func newOto(o *options) (Backend, error) {
	return &otoBackend{log: o.logger}, nil
}

func (b *otoBackend) Name() string { return OtoName }

func (b *otoBackend) Devices() ([]Device, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}
	return []Device{{Index: 0, Name: "default", Default: true}}, nil
}

func (b *otoBackend) Open(dev Device, f Format, fill FillFunc) (Stream, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}
	if dev.Index > 0 {
		return nil, fmt.Errorf("%w: index %d", ErrDeviceNotFound, dev.Index)
	}

	ctx, err := otoContext(f, b.log)
	if err != nil {
		return nil, err
	}

	r := &otoReader{fill: fill, channels: f.Channels, samples: make([]float32, f.Samples())}
	return &otoStream{player: ctx.NewPlayer(r)}, nil
}

// Close marks the backend closed. The process-wide context stays alive for
// a later Open.
func (b *otoBackend) Close() error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	b.closed = true
	return nil
}

// otoReader adapts a FillFunc to the io.Reader oto pulls from.
type otoReader struct {
	fill     FillFunc
	channels int
	samples  []float32
}

func (r *otoReader) Read(p []byte) (int, error) {
	n := len(p) / 4
	n -= n % r.channels
	if n == 0 {
		return 0, nil
	}

	if cap(r.samples) < n {
		r.samples = make([]float32, n)
	}
	buf := r.samples[:n]

	r.fill(buf)
	return utils.PutFloat32LE(p, buf), nil
}

type otoStream struct {
	player *oto.Player

	mtx    sync.Mutex
	closed bool
}

func (s *otoStream) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	s.player.Play()
	return nil
}

func (s *otoStream) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.player.Pause()
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("closing oto player: %w", err)
	}
	return nil
}
