// Package solver drives a constrained nonlinear solve of a geometry.Model.
//
// The program minimizes the model objective subject to every inequality
// c(x) >= 0 in the model, starting from the caller's initial guesses.
//
// Method:
//
// An augmented Lagrangian (Powell-Hestenes-Rockafellar) outer loop wraps
// unconstrained BFGS minimizations from gonum/optimize:
//
//	L(x; λ, μ) = f(x) + Σ ψ(cⱼ(x), λⱼ, μ)
//	ψ(c, λ, μ) = -λc + ½μc²   if μc < λ
//	           = -λ²/(2μ)     otherwise
//
// After each inner solve the multipliers are updated with λⱼ ← max(0, λⱼ - μcⱼ)
// and the penalty μ grows when the constraint violation stops shrinking.
//
// Iterations and observation:
//
// Iteration 0 is the initial guess. Every accepted BFGS major iteration is
// one more iteration. Each one is delivered synchronously, in order, to the
// Observer before the solve continues. The context is checked right after
// each callback and once more when each inner BFGS solve returns, so a
// cancellation raised between callbacks is still honoured before the next
// outer iteration.
//
// Convergence:
//
// A solve succeeds when the largest constraint violation is within
// Options.Tolerance and both Lagrangian stationarity and complementarity
// are within Options.OptimalityTolerance.
//
// Failures are returned as *SolveError carrying the last iterate and match
// ErrDidNotConverge, ErrInfeasible, ErrIterationLimit or ErrCanceled with
// errors.Is. A failed solve never produces a Result.
//
// The raw objective is not monotone across iterations: only the merit value
// L is non-increasing, and only within one outer iteration, because λ and μ
// change between outer iterations.
package solver
