package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/junekyoopark/ReUSV/internal/geometry"
)

// Result is a converged, feasible stationary point.
type Result struct {
	Positions       []geometry.Vec3
	Objective       float64
	Iterations      int
	OuterIterations int
	Violation       float64
	Multipliers     []float64
}

// NLPProblem owns the variable vector and multiplier state of one solve. It
// is not reusable; build a new one per solve.
type NLPProblem struct {
	model       *geometry.Model
	opts        Options
	constraints []geometry.Constraint

	x      []float64
	lambda []float64
	mu     float64

	iterations int
	outer      int
	solved     bool

	ctx      context.Context
	observer Observer
	scratch  []float64
}

// NewProblem prepares a solve of model with the given options.
func NewProblem(model *geometry.Model, opts Options) (*NLPProblem, error) {
	if model == nil {
		return nil, errors.New("nil model")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	constraints := model.Constraints()
	return &NLPProblem{
		model:       model,
		opts:        opts,
		constraints: constraints,
		x:           geometry.Flatten(model.InitialGuess()),
		lambda:      make([]float64, len(constraints)),
		mu:          opts.InitialPenalty,
		scratch:     make([]float64, model.NumVars()),
	}, nil
}

// Solve builds a fresh NLPProblem and runs it.
func Solve(ctx context.Context, model *geometry.Model, opts Options, observer Observer) (*Result, error) {
	p, err := NewProblem(model, opts)
	if err != nil {
		return nil, err
	}
	return p.Solve(ctx, observer)
}

// Solve blocks until the program converges or fails. observer may be nil.
func (p *NLPProblem) Solve(ctx context.Context, observer Observer) (*Result, error) {
	if p.solved {
		return nil, errors.New("problem already solved")
	}
	p.solved = true
	if observer == nil {
		observer = Observers()
	}
	p.ctx = ctx
	p.observer = observer

	if p.model.VolumeRatio() > 1 {
		return nil, p.fail(ErrInfeasible, fmt.Errorf("bodies occupy %.3g times the container volume", p.model.VolumeRatio()))
	}

	if err := p.emit(p.x, p.merit(p.x)); err != nil {
		return nil, p.fail(ErrCanceled, err)
	}

	prevViolation := p.model.MaxViolation(p.x)
	for p.outer = 1; p.outer <= p.opts.MaxOuterIterations; p.outer++ {
		if p.iterations >= p.opts.MaxIterations {
			return nil, p.fail(ErrIterationLimit, nil)
		}
		start := append([]float64(nil), p.x...)
		startLambda := append([]float64(nil), p.lambda...)
		startMu := p.mu

		if err := p.minimizeMerit(); err != nil {
			return nil, err
		}

		violation := p.model.MaxViolation(p.x)
		p.updateMultipliers()
		if violation <= p.opts.Tolerance &&
			p.stationarity() <= p.opts.OptimalityTolerance &&
			p.complementarity() <= p.opts.OptimalityTolerance {
			return p.result(violation), nil
		}
		if p.iterations >= p.opts.MaxIterations {
			return nil, p.fail(ErrIterationLimit, nil)
		}

		if violation > p.opts.Tolerance && violation > 0.25*prevViolation {
			if p.mu >= p.opts.MaxPenalty {
				return nil, p.fail(ErrInfeasible, fmt.Errorf("violation %.3g persists at penalty cap %g", violation, p.opts.MaxPenalty))
			}
			p.mu = math.Min(p.mu*p.opts.PenaltyGrowth, p.opts.MaxPenalty)
		}
		prevViolation = violation

		if floats.Equal(start, p.x) && floats.Equal(startLambda, p.lambda) && startMu == p.mu {
			return nil, p.fail(ErrDidNotConverge, errors.New("iterate stalled"))
		}
	}
	return nil, p.fail(ErrDidNotConverge, fmt.Errorf("no convergence within %d outer iterations", p.opts.MaxOuterIterations))
}

// minimizeMerit runs one inner BFGS solve of the augmented Lagrangian from
// the current iterate.
func (p *NLPProblem) minimizeMerit() error {
	innerTol := 0.1 * math.Min(p.opts.Tolerance, p.opts.OptimalityTolerance)
	// Minimize reports its starting point as a major iteration too.
	budget := p.opts.MaxIterations - p.iterations + 1
	settings := &optimize.Settings{
		GradientThreshold: innerTol,
		MajorIterations:   budget,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Relative:   1e-14,
			Iterations: 50,
		},
		Recorder: iterationRecorder{p: p},
	}
	problem := optimize.Problem{
		Func: p.merit,
		Grad: p.meritGradient,
	}

	res, err := optimize.Minimize(problem, append([]float64(nil), p.x...), settings, &optimize.BFGS{})
	if ctxErr := p.ctx.Err(); ctxErr != nil {
		return p.fail(ErrCanceled, ctxErr)
	}
	if res == nil {
		return p.fail(ErrDidNotConverge, err)
	}
	// The major iteration that terminates Minimize never reaches the
	// recorder, so it is emitted here. Line-search failures still leave a
	// usable best location; the outer loop decides whether it is good enough.
	if !math.IsInf(res.F, 1) && !floats.Equal(res.X, p.x) {
		if err := p.emit(res.X, res.F); err != nil {
			return p.fail(ErrCanceled, err)
		}
	}
	return nil
}

// merit evaluates the augmented Lagrangian at x.
func (p *NLPProblem) merit(x []float64) float64 {
	v := p.model.Objective(x)
	for j, c := range p.constraints {
		cv := c.Value(x)
		lam := p.lambda[j]
		if p.mu*cv < lam {
			v += -lam*cv + 0.5*p.mu*cv*cv
		} else {
			v -= lam * lam / (2 * p.mu)
		}
	}
	return v
}

func (p *NLPProblem) meritGradient(grad, x []float64) {
	p.model.ObjectiveGradient(x, grad)
	for j, c := range p.constraints {
		if w := p.lambda[j] - p.mu*c.Value(x); w > 0 {
			c.AddGradient(x, grad, -w)
		}
	}
}

func (p *NLPProblem) updateMultipliers() {
	for j, c := range p.constraints {
		p.lambda[j] = math.Max(0, p.lambda[j]-p.mu*c.Value(p.x))
	}
}

// stationarity is the infinity norm of the Lagrangian gradient at the
// current iterate and multipliers.
func (p *NLPProblem) stationarity() float64 {
	grad := p.scratch
	p.model.ObjectiveGradient(p.x, grad)
	for j, c := range p.constraints {
		if p.lambda[j] > 0 {
			c.AddGradient(p.x, grad, -p.lambda[j])
		}
	}
	return floats.Norm(grad, math.Inf(1))
}

func (p *NLPProblem) complementarity() float64 {
	worst := 0.0
	for j, c := range p.constraints {
		worst = math.Max(worst, math.Abs(math.Min(p.lambda[j], c.Value(p.x))))
	}
	return worst
}

// emit counts x as the next iteration, hands it to the observer and then
// checks for cancellation.
func (p *NLPProblem) emit(x []float64, merit float64) error {
	snap := Snapshot{
		Iteration: p.iterations,
		Outer:     p.outer,
		Objective: p.model.Objective(x),
		Merit:     merit,
		Violation: p.model.MaxViolation(x),
		Positions: geometry.Unflatten(append([]float64(nil), x...)),
	}
	p.observer.OnIteration(snap)
	if p.outer > 0 {
		copy(p.x, x)
	}
	p.iterations++
	return p.ctx.Err()
}

func (p *NLPProblem) result(violation float64) *Result {
	return &Result{
		Positions:       geometry.Unflatten(append([]float64(nil), p.x...)),
		Objective:       p.model.Objective(p.x),
		Iterations:      p.iterations,
		OuterIterations: p.outer,
		Violation:       violation,
		Multipliers:     append([]float64(nil), p.lambda...),
	}
}

func (p *NLPProblem) fail(kind, cause error) *SolveError {
	return &SolveError{
		Kind:        kind,
		LastIterate: geometry.Unflatten(append([]float64(nil), p.x...)),
		Iterations:  p.iterations,
		Objective:   p.model.Objective(p.x),
		Violation:   p.model.MaxViolation(p.x),
		Err:         cause,
	}
}

// iterationRecorder forwards BFGS major iterations to the observer. An error
// returned here stops gonum's Minimize.
type iterationRecorder struct {
	p *NLPProblem
}

func (r iterationRecorder) Init() error { return nil }

func (r iterationRecorder) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if op&optimize.MajorIteration == 0 || floats.Equal(loc.X, r.p.x) {
		return nil
	}
	return r.p.emit(loc.X, loc.F)
}
