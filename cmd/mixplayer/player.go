// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ik5/mixplayer"
	"github.com/ik5/mixplayer/engine"
)

// openPlayer creates a player from cfg with its volume and fade applied.
func openPlayer(cfg config) (*mixplayer.Player, error) {
	logger := log.Default()

	opts := []mixplayer.Option{
		mixplayer.WithLogger(logger.WithPrefix("player")),
		mixplayer.WithInboxSize(cfg.Inbox),
		mixplayer.WithEngineOptions(engine.WithLogger(logger.WithPrefix("engine"))),
	}
	if cfg.Device >= 0 {
		opts = append(opts, mixplayer.WithDevice(cfg.Device))
	}

	p, err := mixplayer.Open(cfg.Backend, opts...)
	if err != nil {
		return nil, err
	}

	if err := p.SetVolume(cfg.Volume); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("volume: %w", err)
	}
	if err := p.SetFadeIn(cfg.Fade); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("fade: %w", err)
	}
	return p, nil
}
