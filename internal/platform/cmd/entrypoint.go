// Package cmd holds the shared plumbing of the CLI entrypoints.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/louisbranch/tabletop.run/internal/platform/config"
	"github.com/louisbranch/tabletop.run/internal/platform/otel"
)

// Service names reported as the telemetry resource.
const (
	ServiceScenario = "scenario"
	ServiceReplay   = "replay"
)

const telemetryShutdownTimeout = 5 * time.Second

// ParseConfig fills cfg from TABLETOP_RUN_* variables.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses flags, treating nil args as empty.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs the tracer provider for service, calls run, and
// flushes spans before returning.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("%s telemetry: %w", service, err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}

// Main is the whole body of a CLI main function. It parses the command line,
// cancels on SIGINT or SIGTERM, and exits with status 1 on any error.
func Main[T any](service string, parse func(*flag.FlagSet, []string) (T, error), run func(context.Context, T) error) {
	cfg, err := parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = RunWithTelemetry(ctx, service, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
	stop()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
