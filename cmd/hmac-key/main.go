// Package main prints a fresh journal signing key as env assignments.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/tabletop.run/internal/platform/config"
	"github.com/louisbranch/tabletop.run/internal/tools/hmackey"
)

func main() {
	cfg, err := hmackey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	if err := hmackey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("Error: %v", err)
	}
}
