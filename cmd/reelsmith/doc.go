// The reelsmith command is the CLI front end for the video generation daemon.
//
// Most subcommands are thin: they resolve the config file, find the daemon
// socket, and issue an IPC request, falling back to direct store access for
// queue inspection when no daemon is running. The command tree is built with
// Cobra and covers daemon lifecycle, queue maintenance, on-demand generation,
// log tailing, and config scaffolding.
//
// New behavior belongs in the internal packages; this package should only
// grow new flags and commands that surface it.
package main
