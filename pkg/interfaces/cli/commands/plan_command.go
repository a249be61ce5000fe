package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/vsinha/lotsizing/pkg/application/services/lotsizing"
	"github.com/vsinha/lotsizing/pkg/domain/milp"
	"github.com/vsinha/lotsizing/pkg/infrastructure/config"
	"github.com/vsinha/lotsizing/pkg/infrastructure/dataset"
	"github.com/vsinha/lotsizing/pkg/infrastructure/events"
	"github.com/vsinha/lotsizing/pkg/infrastructure/idgen"
	"github.com/vsinha/lotsizing/pkg/infrastructure/logging"
	"github.com/vsinha/lotsizing/pkg/infrastructure/metrics"
	"github.com/vsinha/lotsizing/pkg/infrastructure/solver/highs"
	"github.com/vsinha/lotsizing/pkg/infrastructure/solver/simplex"
	"github.com/vsinha/lotsizing/pkg/interfaces/cli/output"
)

// Config holds configuration for the plan command
type Config struct {
	ConfigFile string
	// Overrides are dotted config keys set explicitly on the command line
	Overrides map[string]any
	Help      bool
	Stdout    io.Writer
	Stderr    io.Writer
}

// PlanCommand solves the lot-sizing instance and reports the plan
type PlanCommand struct {
	config Config
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config Config) *PlanCommand {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}
	return &PlanCommand{
		config: config,
	}
}

// Execute runs the plan command. A run that ends without an optimum reports
// so and still returns nil.
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	conf, err := config.Load(c.config.ConfigFile, c.config.Overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, closer, err := logging.New(logging.Config{
		Level:      conf.Log.Level,
		Format:     conf.Log.Format,
		File:       conf.Log.File,
		MaxSize:    conf.Log.MaxSize,
		MaxBackups: conf.Log.MaxBackups,
		MaxAge:     conf.Log.MaxAge,
		Compress:   conf.Log.Compress,
	}, c.config.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer closer.Close()

	ids, err := idgen.NewGenerator(uint16(conf.Run.MachineID))
	if err != nil {
		return fmt.Errorf("failed to create run id generator: %w", err)
	}
	runID, err := ids.RunID()
	if err != nil {
		return fmt.Errorf("failed to generate run id: %w", err)
	}
	logger = logger.With("run_id", runID)

	backend, aliased, err := milp.Lookup(conf.Solver.Backend)
	if err != nil {
		return fmt.Errorf("failed to select solver: %w", err)
	}
	if aliased {
		logger.Warn("solver backend is an alias",
			"requested", conf.Solver.Backend,
			"backend", backend.Name(),
		)
	}

	repo, err := dataset.NewRepository()
	if err != nil {
		return fmt.Errorf("failed to load datasets: %w", err)
	}
	inst, err := repo.GetInstance(conf.Report.Instance)
	if err != nil {
		return fmt.Errorf("failed to load instance: %w", err)
	}
	logger.Debug("instance loaded",
		"instance", inst.Name,
		"products", inst.NumProducts(),
		"suppliers", inst.NumSuppliers(),
		"periods", inst.NumPeriods(),
	)

	store := events.NewInMemoryEventStore()
	if err := store.Subscribe(events.AllEventTypes, &events.LogHandler{Logger: logger}); err != nil {
		return fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	opts := c.plannerOptions(conf, logger, store)
	if aliased {
		opts = append(opts, lotsizing.WithRequestedBackend(conf.Solver.Backend))
	}
	var recorder *metrics.Recorder
	if conf.Metrics.File != "" {
		recorder = metrics.NewRecorder()
		opts = append(opts, lotsizing.WithObserver(recorder))
	}

	planner := lotsizing.NewPlanningService(backend, opts...)
	result, err := planner.Plan(ctx, inst)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	result.RunID = runID

	if len(conf.Report.Sensitivity) > 0 {
		if result.Plan.IsOptimal() {
			report, err := lotsizing.NewSensitivityService(planner).Sweep(ctx, inst, nil, conf.Report.Sensitivity)
			if err != nil {
				return fmt.Errorf("sensitivity analysis failed: %w", err)
			}
			result.Sensitivity = report
		} else {
			logger.Warn("skipping sensitivity analysis without an optimal plan")
		}
	}

	runEvents, err := store.ReadAllEvents(0)
	if err != nil {
		return fmt.Errorf("failed to read run events: %w", err)
	}

	err = output.Generate(result, output.Config{
		Format:    conf.Report.Format,
		OutputDir: conf.Report.OutputDir,
		Verbose:   conf.Report.Verbose,
		Writer:    c.config.Stdout,
		Events:    runEvents,
	})
	if err != nil {
		return fmt.Errorf("failed to generate output: %w", err)
	}

	if recorder != nil {
		if err := recorder.WriteTextfile(conf.Metrics.File); err != nil {
			return err
		}
		logger.Info("metrics written", "file", conf.Metrics.File)
	}
	return nil
}

func (c *PlanCommand) plannerOptions(conf *config.Config, logger *slog.Logger, store events.EventStore) []lotsizing.Option {
	opts := []lotsizing.Option{
		lotsizing.WithSolveOptions(milp.SolveOptions{
			Output:    conf.Solver.Output,
			TimeLimit: conf.Solver.TimeLimit,
			MIPRelGap: conf.Solver.MIPGap,
			Threads:   conf.Solver.Threads,
		}),
		lotsizing.WithEventStore(store),
		lotsizing.WithLogger(logger),
	}

	if conf.Solver.Relaxation {
		opts = append(opts, lotsizing.WithRelaxation(simplex.New()))
	}

	if path := conf.Solver.WriteModel; path != "" {
		opts = append(opts, lotsizing.WithModelWriter(func(p *milp.Program) error {
			if err := highs.WriteModel(p, path); err != nil {
				return err
			}
			logger.Info("model written", "file", path)
			return nil
		}))
	}
	return opts
}

// ParseFactors parses a comma-separated list of cost scaling factors
func ParseFactors(list string) ([]float64, error) {
	var factors []float64
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sensitivity factor %q: %w", field, err)
		}
		if f < 0 {
			return nil, fmt.Errorf("sensitivity factor cannot be negative, got %g", f)
		}
		factors = append(factors, f)
	}
	return factors, nil
}

// showHelp displays usage information
func (c *PlanCommand) showHelp() {
	inst := dataset.Coursework()
	fmt.Fprintf(c.config.Stdout, `Lot-Sizing Planner - multi-period, multi-supplier ordering with storage limits

USAGE:
    lotsizing [options]

The built-in %q instance (%d products, %d suppliers, %d periods) is solved
with a MILP backend and the optimal ordering plan is printed.

OPTIONS:
    -config <file>        Configuration file (yaml, toml or json)
    -format <fmt>         Output format: text, json, csv, svg (default: text)
    -output <dir>         Output directory (required for csv)
    -verbose              Append model, verification and event details
    -backend <name>       Solver backend: %s; scip is an alias (default: highs)
    -time-limit <dur>     Solver time limit, e.g. 30s (default: none)
    -mip-gap <ratio>      Relative MIP gap (default: solver default)
    -threads <n>          Solver threads (default: solver default)
    -solver-log           Show solver output
    -relaxation           Report the LP-relaxation bound and gap
    -sensitivity <list>   Re-solve with each cost scaled by the factors, e.g. 0.9,1.1
    -write-model <file>   Write the generated model (.lp or .mps)
    -metrics-file <file>  Write run metrics in Prometheus text format
    -log-level <level>    debug, info, warn, error (default: warn)
    -log-file <file>      Write logs to a rotated file instead of stderr
    -help                 Show this help message

ENVIRONMENT:
    Every setting can be overridden with %s_<SECTION>_<KEY>, for example
    %s_SOLVER_BACKEND=highs or %s_REPORT_FORMAT=json.
`,
		inst.Name, inst.NumProducts(), inst.NumSuppliers(), inst.NumPeriods(),
		strings.Join(milp.Backends(), ", "),
		config.EnvPrefix, config.EnvPrefix, config.EnvPrefix)
}
