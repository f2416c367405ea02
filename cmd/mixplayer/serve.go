// SPDX-License-Identifier: EPL-2.0

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ik5/mixplayer"
	"github.com/ik5/mixplayer/control"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the control protocol on a Unix socket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		p, err := openPlayer(cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		if serveWatch {
			watchConfig(viper.GetViper(), p)
		}

		ln, err := control.Listen(cfg.Socket)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("serving", "socket", cfg.Socket, "device", p.Device().Name)
		return control.NewServer(p, log.Default().WithPrefix("control")).Serve(ctx, ln)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "apply volume and fade changes from the config file while serving")
}

// watchConfig applies volume and fade from the config file whenever it
// changes. Invalid values are logged and skipped.
func watchConfig(v *viper.Viper, p *mixplayer.Player) {
	if v.ConfigFileUsed() == "" {
		log.Warn("no config file to watch")
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log.Debug("config changed", "file", e.Name, "op", e.Op)

		cfg, err := loadConfig(v)
		if err != nil {
			log.Warn("ignoring config change", "err", err)
			return
		}
		if err := p.SetVolume(cfg.Volume); err != nil {
			log.Warn("applying volume", "err", err)
		}
		if err := p.SetFadeIn(cfg.Fade); err != nil {
			log.Warn("applying fade", "err", err)
		}
		log.Info("config reloaded", "volume", cfg.Volume, "fade", cfg.Fade)
	})
	v.WatchConfig()
}
