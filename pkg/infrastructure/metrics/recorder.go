// Package metrics records planning runs in a Prometheus registry that can be
// written out in text exposition format for a node-exporter textfile
// collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/lotsizing/pkg/application/dto"
	"github.com/vsinha/lotsizing/pkg/domain/entities"
)

const namespace = "lotsizing"

// Recorder holds the run metrics in a private registry
type Recorder struct {
	registry *prometheus.Registry

	SolvesTotal     *prometheus.CounterVec
	SolveDuration   *prometheus.HistogramVec
	Objective       *prometheus.GaugeVec
	Cost            *prometheus.GaugeVec
	ModelVariables  *prometheus.GaugeVec
	ModelRows       *prometheus.GaugeVec
	Violations      *prometheus.GaugeVec
	RelaxationBound *prometheus.GaugeVec
	RelaxationGap   *prometheus.GaugeVec
}

// NewRecorder creates and registers all run metrics
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.SolvesTotal = r.newCounterVec(prometheus.CounterOpts{
		Name: "solves_total",
		Help: "Planning runs by backend and final status",
	}, []string{"instance", "backend", "status"})

	r.SolveDuration = r.newHistogramVec(prometheus.HistogramOpts{
		Name:    "solve_duration_seconds",
		Help:    "Wall time spent in the MILP backend",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"instance", "backend"})

	r.Objective = r.newGaugeVec(prometheus.GaugeOpts{
		Name: "objective",
		Help: "Objective value of the last optimal plan",
	}, []string{"instance"})

	r.Cost = r.newGaugeVec(prometheus.GaugeOpts{
		Name: "cost",
		Help: "Cost components of the last optimal plan",
	}, []string{"instance", "component"})

	r.ModelVariables = r.newGaugeVec(prometheus.GaugeOpts{
		Name: "model_variables",
		Help: "Columns of the generated program by kind",
	}, []string{"instance", "kind"})

	r.ModelRows = r.newGaugeVec(prometheus.GaugeOpts{
		Name: "model_constraints",
		Help: "Rows of the generated program by constraint family",
	}, []string{"instance", "family"})

	r.Violations = r.newGaugeVec(prometheus.GaugeOpts{
		Name: "verification_violations",
		Help: "Failed checks when re-verifying the last plan",
	}, []string{"instance"})

	r.RelaxationBound = r.newGaugeVec(prometheus.GaugeOpts{
		Name: "relaxation_bound",
		Help: "LP-relaxation lower bound",
	}, []string{"instance"})

	r.RelaxationGap = r.newGaugeVec(prometheus.GaugeOpts{
		Name: "relaxation_gap_ratio",
		Help: "Relative gap between the optimum and the LP bound",
	}, []string{"instance"})

	return r
}

func (r *Recorder) newCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	opts.Namespace = namespace
	cv := prometheus.NewCounterVec(opts, labelNames)
	r.registry.MustRegister(cv)
	return cv
}

func (r *Recorder) newGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	opts.Namespace = namespace
	gv := prometheus.NewGaugeVec(opts, labelNames)
	r.registry.MustRegister(gv)
	return gv
}

func (r *Recorder) newHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	opts.Namespace = namespace
	hv := prometheus.NewHistogramVec(opts, labelNames)
	r.registry.MustRegister(hv)
	return hv
}

// ObservePlan records one planning run
func (r *Recorder) ObservePlan(result *dto.PlanResult) {
	if result == nil || result.Instance == nil || result.Plan == nil {
		return
	}
	name := result.Instance.Name

	r.SolvesTotal.WithLabelValues(name, result.Backend, result.Plan.Status.String()).Inc()
	r.SolveDuration.WithLabelValues(name, result.Backend).Observe(result.SolveTime.Seconds())

	m := result.Model
	r.ModelVariables.WithLabelValues(name, "integer").Set(float64(m.Integer))
	r.ModelVariables.WithLabelValues(name, "continuous").Set(float64(m.Variables - m.Integer))
	for _, fc := range m.Families {
		r.ModelRows.WithLabelValues(name, fc.Family).Set(float64(fc.Count))
	}

	if result.Plan.IsOptimal() {
		r.Objective.WithLabelValues(name).Set(result.Plan.Objective)
		for _, c := range []entities.CostComponent{entities.OrderingCost, entities.PurchasingCost, entities.HoldingCost} {
			r.Cost.WithLabelValues(name, c.String()).Set(result.Plan.Costs.Component(c).InexactFloat64())
		}
		r.Cost.WithLabelValues(name, "total").Set(result.Plan.Costs.Total.InexactFloat64())
	}
	if result.Verification != nil {
		r.Violations.WithLabelValues(name).Set(float64(len(result.Verification.Violations)))
	}
	if result.Relaxation != nil {
		r.RelaxationBound.WithLabelValues(name).Set(result.Relaxation.Bound)
		r.RelaxationGap.WithLabelValues(name).Set(result.Relaxation.Gap)
	}
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path atomically
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
