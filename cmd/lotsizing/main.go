package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/lotsizing/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		configFile  = flag.String("config", "", "Path to configuration file (optional)")
		format      = flag.String("format", "text", "Output format: text, json, csv, svg")
		outputDir   = flag.String("output", "", "Output directory for results (optional)")
		verbose     = flag.Bool("verbose", false, "Enable verbose output")
		backend     = flag.String("backend", "highs", "MILP solver backend")
		timeLimit   = flag.Duration("time-limit", 0, "Solver time limit (0 = none)")
		mipGap      = flag.Float64("mip-gap", 0, "Relative MIP gap (0 = solver default)")
		threads     = flag.Int("threads", 0, "Solver threads (0 = solver default)")
		solverLog   = flag.Bool("solver-log", false, "Show solver output")
		relaxation  = flag.Bool("relaxation", false, "Report the LP-relaxation bound")
		sensitivity = flag.String("sensitivity", "", "Comma-separated cost scaling factors")
		writeModel  = flag.String("write-model", "", "Write the generated model to file (.lp or .mps)")
		metricsFile = flag.String("metrics-file", "", "Write run metrics to file")
		logLevel    = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
		logFile     = flag.String("log-file", "", "Write logs to a rotated file")
		help        = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	factors, err := commands.ParseFactors(*sensitivity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Only flags given on the command line override file and environment settings
	values := map[string]any{
		"format":       *format,
		"output":       *outputDir,
		"verbose":      *verbose,
		"backend":      *backend,
		"time-limit":   *timeLimit,
		"mip-gap":      *mipGap,
		"threads":      *threads,
		"solver-log":   *solverLog,
		"relaxation":   *relaxation,
		"sensitivity":  factors,
		"write-model":  *writeModel,
		"metrics-file": *metricsFile,
		"log-level":    *logLevel,
		"log-file":     *logFile,
	}
	keys := map[string]string{
		"format":       "report.format",
		"output":       "report.output_dir",
		"verbose":      "report.verbose",
		"backend":      "solver.backend",
		"time-limit":   "solver.time_limit",
		"mip-gap":      "solver.mip_gap",
		"threads":      "solver.threads",
		"solver-log":   "solver.output",
		"relaxation":   "solver.relaxation",
		"sensitivity":  "report.sensitivity",
		"write-model":  "solver.write_model",
		"metrics-file": "metrics.file",
		"log-level":    "log.level",
		"log-file":     "log.file",
	}
	overrides := make(map[string]any)
	flag.Visit(func(f *flag.Flag) {
		if key, ok := keys[f.Name]; ok {
			overrides[key] = values[f.Name]
		}
	})

	// Create command configuration
	config := commands.Config{
		ConfigFile: *configFile,
		Overrides:  overrides,
		Help:       *help,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create and execute command
	cmd := commands.NewPlanCommand(config)
	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
