// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/mixplayer/control"
)

var verbs = []string{
	"LOAD", "PLAY", "RESUME", "PAUSE", "SEEK", "REWIND", "FADE",
	"POSITION", "DURATION", "VOLUME", "PLAYING", "STATE",
	"DEVICES", "DEVICE", "SUBSCRIBE", "UNSUBSCRIBE", "PING", "QUIT",
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Control a player interactively",
	Long:  "Control a player interactively with the commands of the control protocol. End events are printed as they happen.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return shell(cmd.Context(), cfg)
	},
}

func shell(ctx context.Context, cfg config) error {
	p, err := openPlayer(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	items := make([]readline.PrefixCompleterInterface, len(verbs))
	for i, v := range verbs {
		items[i] = readline.PcItem(v)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "mixplayer> ",
		HistoryFile:       historyFile(),
		AutoComplete:      readline.NewPrefixCompleter(items...),
		InterruptPrompt:   "^C",
		EOFPrompt:         "QUIT",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("starting shell: %w", err)
	}
	defer rl.Close()

	stdout := rl.Stdout()
	events := control.NewEvents(log.Default().WithPrefix("control"))
	events.Subscribe(stdout)
	if err := p.OnEnd(events.Notify); err != nil {
		return err
	}

	sess := control.NewSession(p, events, stdout)
	defer sess.Close()

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	g.Go(func() error { return p.Run(ctx) })

	fmt.Fprintf(stdout, "Output on %s. Type QUIT to leave.\n", p.Device().Name)

	for !sess.Done() {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if strings.TrimSpace(line) == "" {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			cancel()
			_ = g.Wait()
			return fmt.Errorf("reading input: %w", err)
		}

		if out := sess.Exec(line); out != "" {
			fmt.Fprintln(stdout, out)
		}
	}

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// historyFile is empty, which disables history, when no data dir exists.
func historyFile() string {
	path, err := gap.NewScope(gap.User, appName).DataPath("history")
	if err != nil {
		log.Debug("shell history disabled", "err", err)
		return ""
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.Debug("shell history disabled", "err", err)
		return ""
	}
	return path
}
