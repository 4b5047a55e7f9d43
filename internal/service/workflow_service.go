package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"semisto-service/internal/redisclient"
	"semisto-service/internal/util"
	"semisto-service/internal/workflow"
)

const runLockTTL = 30 * time.Second

// WorkflowService stores runs between requests and serializes actions on
// the same run
type WorkflowService struct {
	engine *workflow.Engine
	runs   RunRepository
	ttl    time.Duration
	logger *zap.Logger
}

func NewWorkflowService(engine *workflow.Engine, runs RunRepository, ttl time.Duration) *WorkflowService {
	return &WorkflowService{
		engine: engine,
		runs:   runs,
		ttl:    ttl,
		logger: util.Named("workflow"),
	}
}

// Kinds lists the registered workflow kinds
func (s *WorkflowService) Kinds() []string {
	return s.engine.Kinds()
}

// Start creates and stores a run positioned on its first step
func (s *WorkflowService) Start(ctx context.Context, kind string, initial workflow.Fields) (*workflow.Run, error) {
	ctx, span := util.StartSpan(ctx, "WorkflowService.Start", attribute.String("workflow.kind", kind))
	defer span.End()

	run, err := s.engine.Start(ctx, kind, uuid.New().String(), initial)
	if err != nil {
		return nil, err
	}

	if err := s.runs.SaveRun(ctx, run, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.Debug("Workflow started", zap.String("run_id", run.ID), zap.String("kind", kind))
	return run, nil
}

// Get loads a run
func (s *WorkflowService) Get(ctx context.Context, id string) (*workflow.Run, error) {
	run, err := s.runs.GetRun(ctx, id)
	if errors.Is(err, redisclient.ErrNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return run, nil
}

// Scope decides whether a caller may see and drive a run
type Scope func(run *workflow.Run) bool

// PublicScope admits every run except partner funding runs
func PublicScope(run *workflow.Run) bool {
	return run.Kind != workflow.KindFunding
}

// PartnerScope admits the funding runs opened by one partner
func PartnerScope(partnerID string) Scope {
	return func(run *workflow.Run) bool {
		return run.Kind == workflow.KindFunding &&
			partnerID != "" &&
			run.Fields[workflow.FieldPartnerID] == partnerID
	}
}

// GetScoped loads a run the scope admits
func (s *WorkflowService) GetScoped(ctx context.Context, id string, scope Scope) (*workflow.Run, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope(run) {
		return nil, ErrRunForbidden
	}
	return run, nil
}

// Dispatch applies one action under the run's lock. The run is stored only
// when the action succeeds; on a blocked transition the loaded run is
// returned with the validation error so callers can render it.
func (s *WorkflowService) Dispatch(ctx context.Context, id string, action workflow.Action) (*workflow.Run, error) {
	return s.DispatchOnce(ctx, id, "", action)
}

// DispatchOnce is Dispatch with a client idempotency key. An action whose
// key was already applied to the run is not replayed; the current run is
// returned instead. An empty key disables the check. A run completed by this
// action is settled only after it has been saved.
func (s *WorkflowService) DispatchOnce(ctx context.Context, id, key string, action workflow.Action) (*workflow.Run, error) {
	return s.DispatchScoped(ctx, id, key, nil, action)
}

// DispatchScoped is DispatchOnce restricted to runs the scope admits. The
// scope is checked under the run's lock. A nil scope admits every run.
func (s *WorkflowService) DispatchScoped(ctx context.Context, id, key string, scope Scope, action workflow.Action) (*workflow.Run, error) {
	ctx, span := util.StartSpan(ctx, "WorkflowService.Dispatch",
		attribute.String("workflow.run_id", id),
		attribute.String("workflow.action", string(action.Type)))
	defer span.End()

	lockKey := "workflow:" + id
	acquired, err := s.runs.AcquireLock(ctx, lockKey, runLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunBusy
	}
	defer func() {
		if err := s.runs.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.Warn("Failed to release run lock", zap.String("run_id", id), zap.Error(err))
		}
	}()

	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope != nil && !scope(run) {
		return nil, ErrRunForbidden
	}

	idemKey := ""
	if key != "" {
		idemKey = "workflow:" + id + ":" + key
		_, err := s.runs.GetIdempotencyKey(ctx, idemKey)
		if err == nil {
			s.logger.Info("Duplicate workflow action ignored",
				zap.String("run_id", id),
				zap.String("idempotency_key", key))
			return run, nil
		}
		if !errors.Is(err, redisclient.ErrNotFound) {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
	}

	wasCompleted := run.Completed
	if err := s.engine.Dispatch(ctx, run, action); err != nil {
		return run, err
	}

	if err := s.runs.SaveRun(ctx, run, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	if run.Completed && !wasCompleted {
		if err := s.engine.Settle(ctx, run); err != nil {
			s.logger.Warn("Failed to settle completed run",
				zap.String("run_id", id),
				zap.String("kind", run.Kind),
				zap.Error(err))
		}
	}

	if idemKey != "" {
		if err := s.runs.SetIdempotencyKey(ctx, idemKey, string(action.Type), s.ttl); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.String("run_id", id), zap.Error(err))
		}
	}
	return run, nil
}
