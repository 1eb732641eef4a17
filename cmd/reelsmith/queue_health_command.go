package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check queue database health (schema, integrity, columns)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DatabaseHealth()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printDatabaseHealth(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func printDatabaseHealth(cmd *cobra.Command, resp *ipc.DatabaseHealthResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database path: %s\n", resp.DBPath)
	fmt.Fprintf(out, "Database exists: %s\n", yesNo(resp.DatabaseExists))
	fmt.Fprintf(out, "Readable: %s\n", yesNo(resp.DatabaseReadable))
	fmt.Fprintf(out, "Schema version: %s\n", resp.SchemaVersion)
	fmt.Fprintf(out, "queue_items table present: %s\n", yesNo(resp.TableExists))
	if cols := sortedColumns(resp.ColumnsPresent); len(cols) > 0 {
		fmt.Fprintf(out, "Columns: %s\n", strings.Join(cols, ", "))
	}
	if missing := sortedColumns(resp.MissingColumns); len(missing) > 0 {
		fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missing, ", "))
	} else {
		fmt.Fprintln(out, "Missing columns: none")
	}
	fmt.Fprintf(out, "Integrity check: %s\n", yesNo(resp.IntegrityCheck))
	fmt.Fprintf(out, "Total items: %d\n", resp.TotalItems)
	if resp.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", resp.Error)
	}
}

func sortedColumns(cols []string) []string {
	out := slices.Clone(cols)
	slices.Sort(out)
	return out
}
