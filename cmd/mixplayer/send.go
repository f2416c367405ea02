// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ik5/mixplayer/control"
)

var sendCmd = &cobra.Command{
	Use:     "send COMMAND [ARGS...]",
	Short:   "Send one command to a running server",
	Example: "mixplayer send LOAD ~/music/intro.ogg\nmixplayer send VOLUME 64/128",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return send(cfg.Socket, strings.Join(args, " "), cmd.OutOrStdout())
	},
}

func send(socket, line string, out io.Writer) error {
	c, err := control.Dial(socket)
	if err != nil {
		return err
	}
	defer c.Close()

	value, err := c.Do(line)
	if err != nil {
		return err
	}
	if value != "" {
		fmt.Fprintln(out, value)
	}
	return nil
}
