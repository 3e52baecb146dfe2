package packer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

const defaultProgressInterval = 2 * time.Second

// Service solves packing problems and keeps their reports.
type Service struct {
	store            trace.Store
	logger           *zap.Logger
	metrics          Metrics
	newRunID         func() string
	progressInterval time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithStore keeps every report in store.
func WithStore(store trace.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLogger sets the logger for solve lifecycle and progress messages.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records solve statistics in m.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithRunIDs replaces the uuid run ID generator.
func WithRunIDs(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newRunID = next
		}
	}
}

// WithProgressInterval sets the minimum time between progress log lines.
// The first iteration is always logged; a non-positive d logs every one.
func WithProgressInterval(d time.Duration) Option {
	return func(s *Service) {
		s.progressInterval = d
	}
}

// NewService creates a Service. Without options it logs nothing, records no
// metrics and stores nothing.
func NewService(opts ...Option) *Service {
	s := &Service{
		logger:           zap.NewNop(),
		metrics:          noopMetrics{},
		newRunID:         uuid.NewString,
		progressInterval: defaultProgressInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve runs p to completion. Invalid options and malformed models are
// returned as errors without a report. Otherwise a report is always
// returned, together with the solver failure if the run did not converge.
// Extra observers see every iteration after the trace has recorded it.
func (s *Service) Solve(ctx context.Context, p Problem, observers ...solver.Observer) (*trace.Report, error) {
	opts := p.options()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runID := s.newRunID()
	logger := s.logger.With(zap.String("run_id", runID))
	if p.Name != "" {
		logger = logger.With(zap.String("problem", p.Name))
	}

	model, err := geometry.NewModel(p.Container, p.Bodies, p.Mode)
	if err != nil {
		s.metrics.ObserveModelError()
		logger.Warn("problem rejected", zap.Error(err))
		return nil, err
	}

	logger.Info("solve started",
		zap.Int("bodies", model.NumBodies()),
		zap.Int("constraints", len(model.Constraints())),
		zap.String("container", string(model.Container().Kind)),
		zap.String("separation", string(model.Mode())),
		zap.Float64("tolerance", opts.Tolerance),
		zap.Int("max_iterations", opts.MaxIterations),
	)

	tr := trace.New()
	all := append([]solver.Observer{tr, s.progressLogger(logger)}, observers...)

	start := time.Now()
	res, solveErr := solver.Solve(ctx, model, opts, solver.Observers(all...))
	elapsed := time.Since(start)

	if solveErr == nil {
		violations, checkErr := model.Check(res.Positions, opts.Tolerance)
		if checkErr != nil || len(violations) > 0 {
			solveErr = verificationError(violations, checkErr)
			res = nil
		}
	}

	report := trace.NewReport(runID, model, tr, res, solveErr)
	s.metrics.ObserveSolve(report.Outcome, string(model.Mode()), elapsed, report.Iterations())

	if s.store != nil {
		if err := s.store.Put(report); err != nil {
			logger.Error("failed to store report", zap.Error(err))
		}
	}

	fields := []zap.Field{
		zap.String("outcome", report.Outcome),
		zap.Int("iterations", report.Iterations()),
		zap.Float64("objective", report.Objective),
		zap.Duration("elapsed", elapsed),
	}
	if solveErr != nil {
		logger.Warn("solve failed", append(fields, zap.Error(solveErr))...)
	} else {
		logger.Info("solve converged", fields...)
	}
	return report, solveErr
}

// progressLogger logs iterations, at most one per progress interval.
func (s *Service) progressLogger(logger *zap.Logger) solver.Observer {
	every := &rate.Sometimes{First: 1, Interval: s.progressInterval}
	if s.progressInterval <= 0 {
		every = &rate.Sometimes{Every: 1}
	}
	return solver.ObserverFunc(func(snap solver.Snapshot) {
		every.Do(func() {
			logger.Info("solver progress",
				zap.Int("iteration", snap.Iteration),
				zap.Int("outer", snap.Outer),
				zap.Float64("objective", snap.Objective),
				zap.Float64("violation", snap.Violation),
			)
		})
	})
}
