package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

// newShowCommand tails the daemon log over IPC: a one-shot dump of the
// last N lines by default, or a live follow with -f.
func newShowCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				return tailDaemonLog(cmd, client, follow, lines)
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	return cmd
}

func tailDaemonLog(cmd *cobra.Command, client *ipc.Client, follow bool, lines int) error {
	// The first request reads the tail of the file; every later request
	// resumes from the returned offset with no line cap.
	req := ipc.LogTailRequest{
		Offset:     -1,
		Limit:      max(lines, 0),
		Follow:     follow,
		WaitMillis: 1000,
	}
	if req.Limit == 0 {
		req.Offset = 0
	}

	printed := false
	for {
		resp, err := client.LogTail(req)
		if err != nil {
			return fmt.Errorf("tail logs: %w", err)
		}
		if resp == nil {
			return errors.New("log tail response missing")
		}
		for _, line := range resp.Lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			printed = true
		}
		if !follow {
			if !printed {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		}
		if cmd.Context().Err() != nil {
			return nil
		}
		req.Offset = resp.Offset
		req.Limit = 0
	}
}
