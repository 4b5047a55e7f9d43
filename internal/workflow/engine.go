package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"semisto-service/internal/util"
)

var (
	ErrUnknownKind       = errors.New("unknown workflow kind")
	ErrUnknownAction     = errors.New("unknown workflow action")
	ErrUnsupportedAction = errors.New("action not supported by this workflow")
	ErrAlreadyCompleted  = errors.New("workflow already completed")
)

// Fields holds the values collected by a run, keyed by field name
type Fields map[string]string

// Problems maps a field name to a human readable message
type Problems map[string]string

// Guard inspects the collected fields and reports what blocks leaving a step.
// An empty result lets the run advance.
type Guard func(f Fields) Problems

// Step is one named stage of a workflow
type Step struct {
	Name  string
	Guard Guard
	// Skip removes the step from navigation in both directions when true
	Skip func(f Fields) bool
}

// CommitFunc performs the side effect of a completed run and returns
// values exposed on the run result.
type CommitFunc func(ctx context.Context, run *Run) (Fields, error)

// Definition describes one workflow kind. The last step is terminal:
// reaching it commits the run.
type Definition struct {
	Kind     string
	Steps    []Step
	Defaults Fields
	// Prepare refreshes derived fields from collaborators before every action
	Prepare func(ctx context.Context, f Fields) error
	Commit  CommitFunc
	// Settle runs once the completed run has been persisted
	Settle func(ctx context.Context, run *Run) error
	// Protected fields are owned by the server and refused by set
	Protected []string

	Presets     []float64
	Coerce      func(raw string) float64
	Frequencies []string
}

func (d *Definition) terminal() int {
	return len(d.Steps) - 1
}

func (d *Definition) refused(f Fields) Problems {
	var problems Problems
	for k := range f {
		if contains(d.Protected, k) {
			if problems == nil {
				problems = Problems{}
			}
			problems[k] = "cannot be changed"
		}
	}
	return problems
}

func (d *Definition) skipped(i int, f Fields) bool {
	return d.Steps[i].Skip != nil && d.Steps[i].Skip(f)
}

// ActionType names the operations a run accepts
type ActionType string

const (
	ActionSet          ActionType = "set"
	ActionNext         ActionType = "next"
	ActionPrevious     ActionType = "previous"
	ActionSelectPreset ActionType = "select_preset"
	ActionCustomAmount ActionType = "custom_amount"
	ActionFrequency    ActionType = "frequency"
)

// Action is the single message type dispatched to a run
type Action struct {
	Type   ActionType `json:"type" binding:"required"`
	Fields Fields     `json:"fields,omitempty"`
	Value  string     `json:"value,omitempty"`
}

// Run is the persisted state of one workflow instance
type Run struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Step        string     `json:"step"`
	StepIndex   int        `json:"step_index"`
	Fields      Fields     `json:"fields"`
	Completed   bool       `json:"completed"`
	Result      Fields     `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ValidationError reports why a run could not leave its current step
type ValidationError struct {
	Step     string
	Problems Problems
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Problems))
	for k := range e.Problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Problems[k])
	}
	return fmt.Sprintf("step %s is incomplete: %s", e.Step, strings.Join(parts, "; "))
}

// Engine drives runs through their definitions
type Engine struct {
	definitions map[string]*Definition
	submitDelay time.Duration
	logger      *zap.Logger
}

// NewEngine creates an engine knowing the given definitions. submitDelay is
// waited before every commit.
func NewEngine(submitDelay time.Duration, defs ...*Definition) *Engine {
	e := &Engine{
		definitions: make(map[string]*Definition, len(defs)),
		submitDelay: submitDelay,
		logger:      util.Named("workflow"),
	}
	for _, d := range defs {
		e.definitions[d.Kind] = d
	}
	return e
}

func (e *Engine) Definition(kind string) (*Definition, bool) {
	d, ok := e.definitions[kind]
	return d, ok
}

func (e *Engine) Kinds() []string {
	kinds := make([]string, 0, len(e.definitions))
	for k := range e.definitions {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Start creates a run positioned on the first step that is not skipped
func (e *Engine) Start(ctx context.Context, kind, id string, initial Fields) (*Run, error) {
	def, ok := e.definitions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	fields := make(Fields, len(def.Defaults)+len(initial))
	for k, v := range def.Defaults {
		fields[k] = v
	}
	for k, v := range initial {
		fields[k] = v
	}

	if def.Prepare != nil {
		if err := def.Prepare(ctx, fields); err != nil {
			return nil, fmt.Errorf("failed to prepare %s workflow: %w", kind, err)
		}
	}

	now := time.Now()
	run := &Run{
		ID:        id,
		Kind:      kind,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}

	first := 0
	for first < def.terminal() && def.skipped(first, fields) {
		first++
	}
	e.moveTo(def, run, first)

	e.logger.Info("Workflow started",
		zap.String("run_id", id),
		zap.String("kind", kind),
		zap.String("step", run.Step))

	return run, nil
}

// Dispatch applies one action to the run. On error the run keeps its
// previous step and completion state.
func (e *Engine) Dispatch(ctx context.Context, run *Run, action Action) error {
	ctx, span := util.StartSpan(ctx, "Engine.Dispatch",
		attribute.String("workflow.kind", run.Kind),
		attribute.String("workflow.action", string(action.Type)))
	defer span.End()

	def, ok := e.definitions[run.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, run.Kind)
	}

	err := e.dispatch(ctx, def, run, action)

	outcome := "ok"
	var verr *ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		outcome = "blocked"
	case errors.Is(err, ErrAlreadyCompleted):
		outcome = "completed"
	default:
		outcome = "error"
		span.RecordError(err)
	}
	util.WorkflowTransitionsTotal.WithLabelValues(run.Kind, string(action.Type), outcome).Inc()

	return err
}

func (e *Engine) dispatch(ctx context.Context, def *Definition, run *Run, action Action) error {
	if run.Completed {
		return ErrAlreadyCompleted
	}
	if run.Fields == nil {
		run.Fields = Fields{}
	}

	switch action.Type {
	case ActionSet:
		if problems := def.refused(action.Fields); len(problems) > 0 {
			return &ValidationError{Step: run.Step, Problems: problems}
		}
		for k, v := range action.Fields {
			run.Fields[k] = v
		}
	case ActionSelectPreset:
		if len(def.Presets) == 0 {
			return ErrUnsupportedAction
		}
		if !isPreset(def, action.Value) {
			return &ValidationError{Step: run.Step, Problems: Problems{FieldAmount: "not one of the proposed amounts"}}
		}
		run.Fields[FieldAmountMode] = AmountModePreset
		run.Fields[FieldPreset] = action.Value
	case ActionCustomAmount:
		if def.Coerce == nil {
			return ErrUnsupportedAction
		}
		run.Fields[FieldAmountMode] = AmountModeCustom
		run.Fields[FieldCustomAmount] = action.Value
	case ActionFrequency:
		if len(def.Frequencies) == 0 {
			return ErrUnsupportedAction
		}
		if !contains(def.Frequencies, action.Value) {
			return &ValidationError{Step: run.Step, Problems: Problems{FieldFrequency: "must be one of " + strings.Join(def.Frequencies, ", ")}}
		}
		run.Fields[FieldFrequency] = action.Value
	case ActionNext:
		return e.next(ctx, def, run)
	case ActionPrevious:
		e.previous(def, run)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}

	run.UpdatedAt = time.Now()
	return nil
}

// Settle performs the follow-up of a completed run, such as releasing the
// cart behind a checkout. It is a no-op for open runs.
func (e *Engine) Settle(ctx context.Context, run *Run) error {
	def, ok := e.definitions[run.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, run.Kind)
	}
	if !run.Completed || def.Settle == nil {
		return nil
	}
	return def.Settle(ctx, run)
}

func (e *Engine) next(ctx context.Context, def *Definition, run *Run) error {
	if def.Prepare != nil {
		if err := def.Prepare(ctx, run.Fields); err != nil {
			return fmt.Errorf("failed to refresh %s workflow: %w", run.Kind, err)
		}
	}

	current := def.Steps[run.StepIndex]
	if current.Guard != nil {
		if problems := current.Guard(run.Fields); len(problems) > 0 {
			e.logger.Debug("Workflow step blocked",
				zap.String("run_id", run.ID),
				zap.String("step", current.Name),
				zap.Any("problems", problems))
			return &ValidationError{Step: current.Name, Problems: problems}
		}
	}

	target := run.StepIndex + 1
	for target < def.terminal() && def.skipped(target, run.Fields) {
		target++
	}
	if target > def.terminal() {
		return ErrAlreadyCompleted
	}

	if target == def.terminal() {
		if err := e.commit(ctx, def, run); err != nil {
			return err
		}
	}

	e.moveTo(def, run, target)
	return nil
}

func (e *Engine) previous(def *Definition, run *Run) {
	target := run.StepIndex - 1
	for target >= 0 && def.skipped(target, run.Fields) {
		target--
	}
	if target < 0 {
		return
	}
	e.moveTo(def, run, target)
}

func (e *Engine) commit(ctx context.Context, def *Definition, run *Run) error {
	start := time.Now()

	if e.submitDelay > 0 {
		timer := time.NewTimer(e.submitDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("workflow submission cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	var result Fields
	if def.Commit != nil {
		var err error
		result, err = def.Commit(ctx, run)
		if err != nil {
			e.logger.Error("Workflow commit failed",
				zap.String("run_id", run.ID),
				zap.String("kind", run.Kind),
				zap.Error(err))
			return fmt.Errorf("failed to commit %s workflow: %w", run.Kind, err)
		}
	}

	now := time.Now()
	run.Completed = true
	run.CompletedAt = &now
	run.Result = result

	util.WorkflowCommitLatency.WithLabelValues(run.Kind).Observe(time.Since(start).Seconds())
	util.WorkflowCompletionsTotal.WithLabelValues(run.Kind).Inc()

	e.logger.Info("Workflow completed",
		zap.String("run_id", run.ID),
		zap.String("kind", run.Kind),
		zap.Duration("duration", time.Since(start)))

	return nil
}

func (e *Engine) moveTo(def *Definition, run *Run, index int) {
	run.StepIndex = index
	run.Step = def.Steps[index].Name
	run.UpdatedAt = time.Now()
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
