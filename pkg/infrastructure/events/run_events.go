package events

import (
	"log/slog"
	"time"
)

const (
	InstanceLoadedEvent       = "instance.loaded"
	ModelBuiltEvent           = "model.built"
	SolveCompletedEvent       = "solve.completed"
	PlanVerifiedEvent         = "plan.verified"
	RelaxationComputedEvent   = "relaxation.computed"
	SensitivityEvaluatedEvent = "sensitivity.evaluated"
)

// AllEventTypes lists every run event type in pipeline order
var AllEventTypes = []string{
	InstanceLoadedEvent,
	ModelBuiltEvent,
	SolveCompletedEvent,
	PlanVerifiedEvent,
	RelaxationComputedEvent,
	SensitivityEvaluatedEvent,
}

type InstanceLoaded struct {
	Name      string `json:"name"`
	Products  int    `json:"products"`
	Suppliers int    `json:"suppliers"`
	Periods   int    `json:"periods"`
}

type ModelBuilt struct {
	Variables   int            `json:"variables"`
	Integer     int            `json:"integer"`
	Constraints int            `json:"constraints"`
	Families    map[string]int `json:"families"`
}

type SolveCompleted struct {
	Backend   string        `json:"backend"`
	Status    string        `json:"status"`
	Objective float64       `json:"objective"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

type PlanVerified struct {
	Valid      bool `json:"valid"`
	Violations int  `json:"violations"`
}

type RelaxationComputed struct {
	Status string  `json:"status"`
	Bound  float64 `json:"bound"`
	Gap    float64 `json:"gap"`
}

type SensitivityEvaluated struct {
	Component string  `json:"component"`
	Factor    float64 `json:"factor"`
	Status    string  `json:"status"`
	Objective float64 `json:"objective"`
}

func NewInstanceLoadedEvent(data InstanceLoaded) Event {
	return NewEvent(InstanceLoadedEvent, data.Name, data)
}

func NewModelBuiltEvent(stream string, data ModelBuilt) Event {
	return NewEvent(ModelBuiltEvent, stream, data)
}

func NewSolveCompletedEvent(stream string, data SolveCompleted) Event {
	return NewEvent(SolveCompletedEvent, stream, data)
}

func NewPlanVerifiedEvent(stream string, data PlanVerified) Event {
	return NewEvent(PlanVerifiedEvent, stream, data)
}

func NewRelaxationComputedEvent(stream string, data RelaxationComputed) Event {
	return NewEvent(RelaxationComputedEvent, stream, data)
}

func NewSensitivityEvaluatedEvent(stream string, data SensitivityEvaluated) Event {
	return NewEvent(SensitivityEvaluatedEvent, stream, data)
}

// LogHandler writes every event it receives to a structured logger at debug level
type LogHandler struct {
	Logger *slog.Logger
}

// Verify interface compliance
var _ EventHandler = (*LogHandler)(nil)

func (h *LogHandler) CanHandle(string) bool {
	return h.Logger != nil
}

func (h *LogHandler) Handle(event Event) error {
	h.Logger.Debug("event",
		"type", event.Type(),
		"stream", event.StreamID(),
		"version", event.Version(),
		"data", event.Data(),
	)
	return nil
}
