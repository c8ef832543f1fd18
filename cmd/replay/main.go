// Package main replays a journaled match and prints its state hash.
package main

import (
	"context"
	"os"

	replaycmd "github.com/louisbranch/tabletop.run/internal/cmd/replay"
	platformcmd "github.com/louisbranch/tabletop.run/internal/platform/cmd"
)

func main() {
	platformcmd.Main(platformcmd.ServiceReplay, replaycmd.ParseConfig, func(ctx context.Context, cfg replaycmd.Config) error {
		return replaycmd.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
}
