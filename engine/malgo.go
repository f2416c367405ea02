// SPDX-License-Identifier: EPL-2.0

//go:build cgo

package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"

	"github.com/ik5/mixplayer/utils"
)

// MalgoName selects the miniaudio backend.
const MalgoName = "malgo"

func init() {
	register(MalgoName, newMalgo)
}

// malgoBackend drives miniaudio through one allocated context.
type malgoBackend struct {
	ctx *malgo.AllocatedContext
	log *log.Logger

	mtx    sync.Mutex
	closed bool
}

func newMalgo(o *options) (Backend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		o.logger.Debug("miniaudio", "msg", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("init context: %w", err)
	}

	return &malgoBackend{ctx: ctx, log: o.logger}, nil
}

func (b *malgoBackend) Name() string { return MalgoName }

func (b *malgoBackend) playbackDevices() ([]malgo.DeviceInfo, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}

	infos, err := b.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return infos, nil
}

func (b *malgoBackend) Devices() ([]Device, error) {
	infos, err := b.playbackDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{Index: i, Name: info.Name(), Default: info.IsDefault != 0}
	}
	return devices, nil
}

func (b *malgoBackend) Open(dev Device, f Format, fill FillFunc) (Stream, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(f.Channels)
	cfg.SampleRate = uint32(f.SampleRate)
	cfg.PeriodSizeInFrames = uint32(f.BufferFrames)

	s := &malgoStream{channels: f.Channels, scratch: make([]float32, f.Samples())}

	if dev.Index >= 0 {
		infos, err := b.playbackDevices()
		if err != nil {
			return nil, err
		}
		if dev.Index >= len(infos) {
			return nil, fmt.Errorf("%w: index %d", ErrDeviceNotFound, dev.Index)
		}
		s.info = infos[dev.Index]
		cfg.Playback.DeviceID = s.info.ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frames uint32) {
			n := int(frames) * s.channels
			if cap(s.scratch) < n {
				s.scratch = make([]float32, n)
			}
			buf := s.scratch[:n]
			fill(buf)
			utils.PutFloat32LE(out, buf)
		},
	}

	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}

	device, err := malgo.InitDevice(b.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("init device %q: %w", dev.Name, err)
	}
	s.device = device

	b.log.Debug("device opened", "device", dev.Name, "rate", f.SampleRate, "channels", f.Channels)
	return s, nil
}

func (b *malgoBackend) Close() error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.ctx.Uninit(); err != nil {
		b.ctx.Free()
		return fmt.Errorf("uninit context: %w", err)
	}
	b.ctx.Free()
	return nil
}

type malgoStream struct {
	device   *malgo.Device
	info     malgo.DeviceInfo // keeps the device ID alive for the driver
	channels int
	scratch  []float32

	once sync.Once
}

func (s *malgoStream) Start() error {
	if s.device == nil {
		return ErrStreamClosed
	}
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("start device: %w", err)
	}
	return nil
}

// Close uninitializes the device, which stops it and waits for the
// running data callback.
func (s *malgoStream) Close() error {
	s.once.Do(func() {
		s.device.Uninit()
	})
	return nil
}
