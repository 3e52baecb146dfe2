package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/junekyoopark/ReUSV/internal/config"
	"github.com/junekyoopark/ReUSV/internal/export"
	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/packer"
	"github.com/junekyoopark/ReUSV/internal/solver"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Request limits applied unless overridden with WithRequestLimits. Every
// body pair adds separation constraints, so the body count bounds solve cost.
const (
	defaultMaxRequestBytes int64 = 1 << 20
	defaultMaxBodies             = 64
)

var errInvalidRequest = errors.New("invalid request")

// Solver runs packing problems. *packer.Service implements it.
type Solver interface {
	Solve(ctx context.Context, p packer.Problem, observers ...solver.Observer) (*trace.Report, error)
}

// Handler wires the packing service and run store into HTTP handlers.
type Handler struct {
	solver     Solver
	store      trace.Store
	defaults   solver.Options
	separation geometry.SeparationMode

	maxRequestBytes int64
	maxBodies       int

	clock    func() time.Time
	upgrader websocket.Upgrader
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithDefaults sets the solver options and separation mode used when a
// request does not name its own.
func WithDefaults(opts solver.Options, mode geometry.SeparationMode) HandlerOption {
	return func(h *Handler) {
		h.defaults = opts
		h.separation = mode
	}
}

// WithRequestLimits caps the size of a solve request and the number of
// bodies it may place. Non-positive values keep the defaults.
func WithRequestLimits(maxBytes int64, maxBodies int) HandlerOption {
	return func(h *Handler) {
		if maxBytes > 0 {
			h.maxRequestBytes = maxBytes
		}
		if maxBodies > 0 {
			h.maxBodies = maxBodies
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies. store
// must be the store the solver records its reports in.
func NewHandler(s Solver, store trace.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		solver:     s,
		store:      store,
		defaults:   solver.DefaultOptions(),
		separation: geometry.SeparationPerAxis,

		maxRequestBytes: defaultMaxRequestBytes,
		maxBodies:       defaultMaxBodies,

		clock: func() time.Time {
			return time.Now().UTC()
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	body := http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		detail := "unable to parse JSON payload"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			detail = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
		}
		writeError(w, http.StatusBadRequest, "Invalid request", detail)
		return
	}

	p, err := h.buildProblem(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	report, err := h.solver.Solve(r.Context(), p)
	switch {
	case report == nil && errors.Is(err, geometry.ErrConstraintModel):
		writeError(w, http.StatusBadRequest, "Invalid problem", err.Error())
	case report == nil && err != nil:
		writeInternalError(w, err)
	case report == nil:
		writeInternalError(w, errors.New("solver returned no report"))
	case err != nil:
		writeJSON(w, http.StatusUnprocessableEntity, newRunResponse(report))
	default:
		writeJSON(w, http.StatusOK, newRunResponse(report))
	}
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, runsResponse{Runs: h.store.List()})
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	report, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(report))
}

// artifact serves one export of a stored run. The export is rendered into
// memory first so a failure can still produce an error response.
func (h *Handler) artifact(contentType, filename string, write func(io.Writer, *trace.Report) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := h.lookupRun(w, r)
		if !ok {
			return
		}

		var buf bytes.Buffer
		if err := write(&buf, report); err != nil {
			writeInternalError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.RunID+"-"+filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func (h *Handler) lookupRun(w http.ResponseWriter, r *http.Request) (*trace.Report, bool) {
	report, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, trace.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "Run not found", err.Error())
			return nil, false
		}
		writeInternalError(w, err)
		return nil, false
	}
	return report, true
}

// buildProblem resolves a request into a problem with validated options.
func (h *Handler) buildProblem(req solveRequest) (packer.Problem, error) {
	var (
		p   packer.Problem
		err error
	)
	switch {
	case req.Example != "" && req.Problem != nil:
		return packer.Problem{}, fmt.Errorf("%w: give either example or problem, not both", errInvalidRequest)
	case req.Example != "":
		if p, err = packer.Example(req.Example); err != nil {
			return packer.Problem{}, fmt.Errorf("%w: %w", errInvalidRequest, err)
		}
		p.Mode = h.separation
	case req.Problem != nil:
		if n := len(req.Problem.Bodies); n > h.maxBodies {
			return packer.Problem{}, fmt.Errorf("%w: %d bodies exceeds the limit of %d", errInvalidRequest, n, h.maxBodies)
		}
		if p, err = req.Problem.Build(h.separation); err != nil {
			return packer.Problem{}, err
		}
	default:
		return packer.Problem{}, fmt.Errorf("%w: example or problem is required", errInvalidRequest)
	}

	if req.Separation != "" {
		mode, err := geometry.ParseSeparationMode(req.Separation)
		if err != nil {
			return packer.Problem{}, fmt.Errorf("%w: %w", errInvalidRequest, err)
		}
		p.Mode = mode
	}

	opts := h.defaults
	if req.Tolerance != nil {
		opts.Tolerance = *req.Tolerance
	}
	if req.MaxIterations != nil {
		opts.MaxIterations = *req.MaxIterations
	}
	if err := opts.Validate(); err != nil {
		return packer.Problem{}, fmt.Errorf("%w: %w", errInvalidRequest, err)
	}
	p.Options = opts
	return p, nil
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type solveRequest struct {
	Example       string                `json:"example,omitempty"`
	Problem       *config.ProblemConfig `json:"problem,omitempty"`
	Separation    string                `json:"separation,omitempty"`
	Tolerance     *float64              `json:"tolerance,omitempty"`
	MaxIterations *int                  `json:"maxIterations,omitempty"`
}

type runResponse struct {
	trace.Summary
	Separation string               `json:"separation"`
	Problem    config.ProblemConfig `json:"problem"`
	Initial    []geometry.Vec3      `json:"initial"`
	Final      []geometry.Vec3      `json:"final,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func newRunResponse(r *trace.Report) runResponse {
	resp := runResponse{
		Summary:    r.Summarize(),
		Separation: string(r.Mode),
		Problem: config.Describe(packer.Problem{
			Container: r.Container,
			Bodies:    r.Bodies,
			Mode:      r.Mode,
		}),
		Initial: r.Initial,
		Final:   r.Final,
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}

type runsResponse struct {
	Runs []trace.Summary `json:"runs"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

// exporters maps artifact routes to their renderers.
var exporters = []struct {
	suffix      string
	contentType string
	write       func(io.Writer, *trace.Report) error
}{
	{suffix: "trace.csv", contentType: "text/csv", write: export.WriteCSV},
	{suffix: "trace.xlsx", contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", write: export.WriteXLSX},
	{suffix: "report.pdf", contentType: "application/pdf", write: export.WritePDF},
}
