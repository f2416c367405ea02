// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/ik5/mixplayer"
)

var playLoop bool

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Play a file until it ends",
	Long:  "Play a WAV, AIFF, Ogg Vorbis or MP3 file. Ctrl-C stops playback.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		path, err := homedir.Expand(args[0])
		if err != nil {
			return fmt.Errorf("expanding path: %w", err)
		}

		// progress redraws a single line in place
		progress := io.Discard
		if term.IsTerminal(int(os.Stderr.Fd())) {
			progress = cmd.ErrOrStderr()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return play(ctx, cfg, path, playLoop, cmd.OutOrStdout(), progress)
	},
}

func init() {
	flags := playCmd.Flags()
	flags.Duration("fade", 0, "fade-in when the track starts")
	flags.Float64("volume", 1, "linear gain between 0 and 1")
	flags.BoolVar(&playLoop, "loop", false, "start over when the track ends")

	_ = viper.BindPFlag("fade", flags.Lookup("fade"))
	_ = viper.BindPFlag("volume", flags.Lookup("volume"))
}

func play(ctx context.Context, cfg config, path string, loop bool, out, progress io.Writer) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unable to open file: %w", err)
	}

	p, err := openPlayer(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	started := time.Now()
	if err := p.Load(path); err != nil {
		return err
	}
	log.Debug("decoded", "file", path, "took", time.Since(started))

	fmt.Fprintf(out, "Playing %s (%s, %s) on %s\n",
		filepath.Base(path), humanize.Bytes(uint64(st.Size())), clock(p.Duration()), p.Device().Name)

	g, ctx := errgroup.WithContext(ctx)
	finished := make(chan struct{})

	g.Go(func() error {
		defer close(finished)

		for plays := 1; ; plays++ {
			if err := p.Wait(ctx); err != nil {
				return err
			}
			if !loop {
				return nil
			}
			fmt.Fprintf(out, "\nStarting the %s play\n", humanize.Ordinal(plays+1))
			if err := p.Rewind(); err != nil {
				return err
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-finished:
				fmt.Fprintf(progress, "\r%s / %s\n", clock(p.Duration()), clock(p.Duration()))
				return nil
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				fmt.Fprintf(progress, "\r%s / %s", clock(p.Position()), clock(p.Duration()))
			}
		}
	})

	err = g.Wait()
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "\nStopped at %s, started %s\n", clock(p.Position()), humanize.RelTime(started, time.Now(), "ago", "from now"))
		return nil
	case errors.Is(err, mixplayer.ErrClosed):
		return nil
	}
	return err
}

// clock formats d as m:ss.
func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
