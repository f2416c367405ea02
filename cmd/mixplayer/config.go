// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ik5/mixplayer"
)

const appName = "mixplayer"

const defaultConfig = `# audio backend: malgo, portaudio, oto or null (empty picks the default)
backend: ""
# output device index, -1 for the system default
device: -1
# linear gain between 0.0 and 1.0
volume: 1.0
# fade-in applied when a track starts, e.g. 500ms
fade: "0s"
# control server socket
socket: ""
# undelivered end notifications kept
inbox: 3
`

// config is the effective configuration after flags, environment and file.
type config struct {
	Backend string
	Device  int
	Volume  float64
	Fade    time.Duration
	Socket  string
	Inbox   int
	Debug   bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", "")
	v.SetDefault("device", -1)
	v.SetDefault("volume", 1.0)
	v.SetDefault("fade", "0s")
	v.SetDefault("socket", "")
	v.SetDefault("inbox", mixplayer.DefaultInboxSize)
	v.SetDefault("debug", false)
}

// readConfig loads file, or mixplayer.yml from the user config dirs when
// file is empty. A missing default file is not an error.
func readConfig(v *viper.Viper, file string) error {
	v.SetEnvPrefix(appName)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", file, err)
		}
		return nil
	}

	dirs, err := configDirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	v.SetConfigName(appName)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("parsing configuration file: %w", err)
		}
	}
	return nil
}

func configDirs() ([]string, error) {
	dirs, err := gap.NewScope(gap.User, appName).ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("finding configuration directory: %w", err)
	}

	if c := os.Getenv("MIXPLAYER_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs, nil
}

// loadConfig validates the merged configuration.
func loadConfig(v *viper.Viper) (config, error) {
	cfg := config{
		Backend: v.GetString("backend"),
		Device:  v.GetInt("device"),
		Volume:  v.GetFloat64("volume"),
		Fade:    v.GetDuration("fade"),
		Socket:  v.GetString("socket"),
		Inbox:   v.GetInt("inbox"),
		Debug:   v.GetBool("debug"),
	}

	if math.IsNaN(cfg.Volume) || cfg.Volume < 0 || cfg.Volume > 1 {
		return cfg, fmt.Errorf("volume must be between 0 and 1, got %v", cfg.Volume)
	}
	if cfg.Fade < 0 {
		return cfg, fmt.Errorf("fade must not be negative, got %v", cfg.Fade)
	}
	if cfg.Inbox < 1 {
		return cfg, fmt.Errorf("inbox must be at least 1, got %d", cfg.Inbox)
	}
	if cfg.Socket == "" {
		cfg.Socket = defaultSocket()
	}
	socket, err := homedir.Expand(cfg.Socket)
	if err != nil {
		return cfg, fmt.Errorf("socket path: %w", err)
	}
	cfg.Socket = socket
	return cfg, nil
}

func defaultSocket() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appName+".sock")
}

var configInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration file and effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := viper.ConfigFileUsed()
		if path == "" {
			dirs, err := configDirs()
			if err != nil {
				return err
			}
			path = filepath.Join(dirs[0], appName+".yml")
		}

		if configInit {
			if err := ensureConfigFile(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote config file to:", path)
		}

		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "file:   ", path)
		fmt.Fprintln(out, "backend:", cfg.Backend)
		fmt.Fprintln(out, "device: ", cfg.Device)
		fmt.Fprintln(out, "volume: ", cfg.Volume)
		fmt.Fprintln(out, "fade:   ", cfg.Fade)
		fmt.Fprintln(out, "socket: ", cfg.Socket)
		fmt.Fprintln(out, "inbox:  ", cfg.Inbox)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "write a default config file if none exists")
}

func ensureConfigFile(path string) error {
	if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%q is not a supported configuration type: use .yaml or .yml", ext)
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("unable to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}
