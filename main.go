package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"studygames/tetris/client"
	"studygames/tetris/config"
)

const (
	hideCursor = "\033[2J\033[?25l" // also clear screen
	showCursor = "\033[2J\033[H\033[?25h"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var online bool
	cmd := &cobra.Command{
		Use:   "tetris",
		Short: "Play Tetris in the terminal",
		Long: `tetris plays Tetris in the terminal.

By default the game runs in this process. With --online the game runs on a
tetris-server at --addr and the terminal only draws it and sends the keys.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			// stdout is the playfield, logs go to --log-file or nowhere.
			logger, closeLog, err := cfg.Logger(io.Discard)
			if err != nil {
				return err
			}
			defer closeLog() //nolint:errcheck

			o := &client.Options{NoGhost: cfg.NoGhost, Config: cfg.Engine()}
			if online {
				o.Address = cfg.Addr
			}
			c, err := client.New(logger, o)
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			fmt.Print(hideCursor)
			defer fmt.Print(showCursor)
			c.Start()
			return nil
		},
	}
	cfg.EngineFlags(cmd.Flags())
	cfg.CommonFlags(cmd.Flags())
	cmd.Flags().BoolVar(&cfg.NoGhost, "no-ghost", cfg.NoGhost, "Hide the ghost piece (env: TETRIS_NO_GHOST)")
	cmd.Flags().BoolVarP(&online, "online", "o", false, "Play a session hosted by the server at --addr")
	return cmd
}
