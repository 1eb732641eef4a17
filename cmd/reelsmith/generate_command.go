package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
	"reelsmith/internal/queue"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generate [topic]",
		Short: "Queue an on-demand video generation run",
		Long: "Queue a video generation run outside the regular schedule. Without a topic\n" +
			"the daemon picks a fresh one from the configured topic pool.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := ""
			if len(args) == 1 {
				topic = strings.TrimSpace(args[0])
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()

				if client != nil {
					resp, err := client.GenerateNow(topic)
					if err != nil {
						return err
					}
					if !resp.Enqueued {
						if resp.Message != "" {
							fmt.Fprintln(out, resp.Message)
							return nil
						}
						fmt.Fprintln(out, "Generation run not queued")
						return nil
					}
					if resp.Item != nil {
						fmt.Fprintf(out, "Queued generation run #%d (%s)\n", resp.Item.ID, displayTopic(resp.Item.Topic))
					} else {
						fmt.Fprintln(out, resp.Message)
					}
					return nil
				}

				// Daemon offline: enqueue directly so the job runs on next start.
				item, err := store.NewJob(cmd.Context(), topic, queue.TriggerManual)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Queued generation run #%d (%s); start the daemon to process it\n", item.ID, displayTopic(item.Topic))
				return nil
			})
		},
	}
}

func displayTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "topic chosen at run time"
	}
	return topic
}
