package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
	"reelsmith/internal/scheduler"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the generation schedule and upcoming runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := resolveScheduleStatus(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, schedule)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scheduled runs: %s\n", yesNo(schedule.Enabled))
			if len(schedule.Times) > 0 {
				fmt.Fprintf(out, "Run times: %s (%s)\n", strings.Join(schedule.Times, ", "), schedule.Timezone)
			}
			if !schedule.Enabled {
				return nil
			}
			if len(schedule.NextRuns) == 0 {
				fmt.Fprintln(out, "No upcoming runs")
				return nil
			}
			fmt.Fprintln(out, "Upcoming runs:")
			for _, run := range schedule.NextRuns {
				fmt.Fprintf(out, "  %s\n", run)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

// resolveScheduleStatus prefers the daemon's view and falls back to computing
// upcoming runs from the local configuration when the daemon is offline.
func resolveScheduleStatus(ctx *commandContext) (ipc.ScheduleStatus, error) {
	var schedule ipc.ScheduleStatus
	dialErr := ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.ScheduleStatus()
		if err != nil {
			return err
		}
		schedule = resp.Schedule
		return nil
	})
	if dialErr == nil {
		return schedule, nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return ipc.ScheduleStatus{}, err
	}
	schedule = ipc.ScheduleStatus{
		Enabled:  cfg.Schedule.Enabled,
		Timezone: cfg.Schedule.Timezone,
		Times:    append([]string(nil), cfg.Schedule.Times...),
	}
	if !schedule.Enabled {
		return schedule, nil
	}

	sched, err := scheduler.NewScheduler(cfg, nil, nil, nil)
	if err != nil {
		return ipc.ScheduleStatus{}, err
	}
	for _, run := range sched.NextRuns(3) {
		schedule.NextRuns = append(schedule.NextRuns, run.Format("2006-01-02 15:04 MST"))
	}
	return schedule, nil
}
