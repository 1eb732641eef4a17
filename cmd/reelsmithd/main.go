// Command reelsmithd runs the reelsmith daemon in the foreground. It is the
// systemd-friendly entrypoint; `reelsmith start` launches the same runtime
// through the hidden `reelsmith daemon` subcommand instead.
package main

import (
	"context"
	"fmt"
	"os"

	"reelsmith/internal/config"
	"reelsmith/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	opts := daemonrun.Options{LogLevel: cfg.Logging.Level}
	if err := daemonrun.Run(context.Background(), cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "reelsmithd: %v\n", err)
		os.Exit(1)
	}
}
