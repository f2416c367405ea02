// SPDX-License-Identifier: EPL-2.0

// Command mixplayer plays audio files and serves the control protocol.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ik5/mixplayer"
	"github.com/ik5/mixplayer/engine"
)

// Version is set at build time.
var Version = ""

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:           "mixplayer",
		Short:         "Play audio files on an output device",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setup()
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func init() {
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default mixplayer.yml in the user config dir)")
	flags.String("backend", "", fmt.Sprintf("audio backend: %s (default %s)", strings.Join(engine.Names(), ", "), engine.DefaultName))
	flags.Bool("debug", false, "log debug messages")
	flags.Int("inbox", mixplayer.DefaultInboxSize, "undelivered end notifications kept")
	flags.Int("device", -1, "output device index, -1 for the system default")
	flags.String("socket", "", "control socket path (default $XDG_RUNTIME_DIR/mixplayer.sock)")

	_ = viper.BindPFlag("backend", flags.Lookup("backend"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("inbox", flags.Lookup("inbox"))
	_ = viper.BindPFlag("device", flags.Lookup("device"))
	_ = viper.BindPFlag("socket", flags.Lookup("socket"))

	setDefaults(viper.GetViper())

	rootCmd.AddCommand(playCmd, devicesCmd, shellCmd, serveCmd, sendCmd, configCmd, manCmd)
}

// setup reads the configuration and applies the log level.
func setup() error {
	if err := readConfig(viper.GetViper(), configFile); err != nil {
		return err
	}

	log.SetPrefix("mixplayer")
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("using configuration file", "path", used)
	}
	return nil
}
