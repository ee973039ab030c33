package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/integrii/flaggy"

	"sandpile/src/config"
	"sandpile/src/logging"
	"sandpile/src/sandbox"
	"sandpile/src/view"
)

const version = "0.3.0"

//EnvOptions are the process level options, not the part of the simulation
type EnvOptions struct {
	configPath string
	noColor    bool
}

func main() {
	eo, cfg, err := initOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
	os.Exit(run(ctx, eo, cfg, logger))
}

//run builds the simulation with its exporters and runs it, returns the process exit code
func run(ctx context.Context, eo *EnvOptions, cfg *config.Config, logger *slog.Logger) int {
	var exporters sandbox.Exporters
	if cfg.Output.Log != "" {
		exporters = append(exporters, view.NewTextLog(cfg.Output.Log))
	}
	var store *view.SQLiteStore
	if cfg.Output.DB != "" {
		var err error
		if store, err = view.OpenSQLiteStore(cfg.Output.DB); err != nil {
			logger.Error("cannot open snapshot database", "path", cfg.Output.DB, "err", err)
			return 1
		}
		defer store.Close()
		exporters = append(exporters, store)
	}

	s, err := sandbox.NewSimulation(cfg.Options(), exporters, logger)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return 2
	}
	if store != nil {
		if err := store.BeginRun(s.Status().RunID, s.Options().Size, s.Engine()); err != nil {
			logger.Error("cannot register run", "err", err)
			return 1
		}
	}
	if !cfg.Logging.Quiet {
		s.RegisterViewer(view.NewConsoleOut(os.Stdout, !eo.noColor))
	}

	if err := s.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		return 1
	}
	return 0
}

//configPath finds the -c/--config value before the flags are bound
//the file values are the defaults the command line flags override
func configPath(args []string) string {
	for i, a := range args {
		for _, name := range []string{"-c", "--config"} {
			if a == name && i+1 < len(args) {
				return args[i+1]
			}
			if strings.HasPrefix(a, name+"=") {
				return strings.TrimPrefix(a, name+"=")
			}
		}
	}
	return ""
}

func initOptions(args []string) (eo *EnvOptions, cfg *config.Config, err error) {
	eo = &EnvOptions{configPath: configPath(args)}
	cfg = config.Default()
	if eo.configPath != "" {
		if cfg, err = config.Load(eo.configPath); err != nil {
			return nil, nil, err
		}
	}

	sc := &cfg.Simulation
	p := flaggy.NewParser("sandpile")
	p.Description = "Abelian sandpile simulation: drops the grains one by one and relaxes the sand box after each one"
	p.Version = version
	p.ShowHelpOnUnexpected = true
	p.String(&eo.configPath, "c", "config", "YAML configuration file, the flags override its values")
	p.Int(&sc.Size, "s", "size", "Size N of the N x N sand box")
	p.Int(&sc.Iterations, "i", "iterations", "Number of grains to drop")
	p.Int(&sc.Row, "x", "row", "Row of the injection cell")
	p.Int(&sc.Col, "y", "col", "Column of the injection cell")
	p.String(&sc.Placement, "p", "placement", "Grain placement [fixed|random|center]")
	p.UInt64(&sc.Seed, "", "seed", "Seed of the random placement")
	p.String(&sc.Engine, "e", "engine", "Engine to use ["+strings.Join(sandbox.EngineNames(), "|")+"]")
	p.String(&cfg.Output.Log, "o", "out", "Text log the snapshots are appended to, empty disables it")
	p.String(&cfg.Output.DB, "", "db", "SQLite database to store the snapshots in")
	p.String(&cfg.Logging.Level, "l", "log-level", "Log level [error|warn|info|debug|trace]")
	p.Bool(&cfg.Logging.Quiet, "q", "quiet", "Do not print the progress")
	p.Bool(&eo.noColor, "", "no-color", "Disable the colored output")

	if err = p.ParseArgs(args); err != nil {
		return nil, nil, err
	}

	if err = cfg.Options().Validate(); err != nil {
		return nil, nil, err
	}
	return eo, cfg, nil
}
