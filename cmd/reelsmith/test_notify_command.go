package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

// newTestNotifyCommand pushes a test message through the configured
// notification webhook so users can confirm their ntfy topic works.
func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if line := notifyOutcome(resp); line != "" {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				return nil
			})
		},
	}
}

// notifyOutcome picks the line to print for a test-notification reply.
// The daemon's message wins; otherwise report the sent flag.
func notifyOutcome(resp *ipc.TestNotificationResponse) string {
	switch {
	case resp == nil:
		return ""
	case resp.Message != "":
		return resp.Message
	case resp.Sent:
		return "Test notification sent"
	default:
		return "Notification not sent"
	}
}
