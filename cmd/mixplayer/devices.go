// SPDX-License-Identifier: EPL-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ik5/mixplayer/engine"
)

var devicesJSON bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the output devices of the configured backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return listDevices(cfg.Backend, devicesJSON, cmd.OutOrStdout())
	},
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesJSON, "json", false, "print JSON")
}

func listDevices(backend string, asJSON bool, out io.Writer) error {
	b, err := engine.Open(backend, engine.WithLogger(log.Default().WithPrefix("engine")))
	if err != nil {
		return err
	}
	defer b.Close()

	devices, err := b.Devices()
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(devices)
	}

	fmt.Fprintf(out, "Backend %s, %d device(s):\n", b.Name(), len(devices))
	for _, d := range devices {
		mark := ""
		if d.Default {
			mark = " (default)"
		}
		fmt.Fprintf(out, "%3d  %s%s\n", d.Index, d.Name, mark)
	}
	return nil
}
