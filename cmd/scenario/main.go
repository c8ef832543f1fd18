// Package main provides a CLI for running Lua scenario scripts.
package main

import (
	"context"
	"os"

	scenariocmd "github.com/louisbranch/tabletop.run/internal/cmd/scenario"
	platformcmd "github.com/louisbranch/tabletop.run/internal/platform/cmd"
)

func main() {
	platformcmd.Main(platformcmd.ServiceScenario, scenariocmd.ParseConfig, func(ctx context.Context, cfg scenariocmd.Config) error {
		return scenariocmd.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
}
