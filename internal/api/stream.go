package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

const streamWriteWait = 10 * time.Second

// Stream message types.
const (
	streamIteration = "iteration"
	streamResult    = "result"
	streamError     = "error"
)

type streamMessage struct {
	Type     string           `json:"type"`
	Snapshot *snapshotMessage `json:"snapshot,omitempty"`
	Run      *runResponse     `json:"run,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type snapshotMessage struct {
	Iteration int             `json:"iteration"`
	Outer     int             `json:"outer"`
	Objective float64         `json:"objective"`
	Violation float64         `json:"violation"`
	Positions []geometry.Vec3 `json:"positions"`
}

// handleStream upgrades to a websocket, reads one solve request and streams
// every iteration followed by a result or error message. Closing the
// connection cancels the solve.
func (h *Handler) handleStream(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied with an HTTP error.
			return
		}
		defer conn.Close()

		logger := logger.With(zap.String("request_id", requestIDFromContext(r.Context())))

		// Past the limit gorilla closes with CloseMessageTooBig itself.
		conn.SetReadLimit(h.maxRequestBytes)

		var req solveRequest
		if err := conn.ReadJSON(&req); err != nil {
			sendStream(logger, conn, streamMessage{Type: streamError, Error: "unable to parse JSON payload"})
			return
		}
		p, err := h.buildProblem(req)
		if err != nil {
			sendStream(logger, conn, streamMessage{Type: streamError, Error: err.Error()})
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// The client sends nothing after the request; a read error means it
		// has gone away.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		broken := false
		forward := solver.ObserverFunc(func(s solver.Snapshot) {
			if broken {
				return
			}
			msg := streamMessage{Type: streamIteration, Snapshot: &snapshotMessage{
				Iteration: s.Iteration,
				Outer:     s.Outer,
				Objective: s.Objective,
				Violation: s.Violation,
				Positions: s.Positions,
			}}
			if !sendStream(logger, conn, msg) {
				broken = true
				cancel()
			}
		})

		report, err := h.solver.Solve(ctx, p, forward)
		if broken {
			return
		}
		if report == nil {
			detail := "solver returned no report"
			if err != nil {
				detail = err.Error()
			}
			sendStream(logger, conn, streamMessage{Type: streamError, Error: detail})
			return
		}

		run := newRunResponse(report)
		if !sendStream(logger, conn, streamMessage{Type: streamResult, Run: &run}) {
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, report.Outcome),
			time.Now().Add(streamWriteWait))
	}
}

func sendStream(logger *zap.Logger, conn *websocket.Conn, msg streamMessage) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		logger.Debug("stream deadline failed", zap.Error(err))
		return false
	}
	if err := conn.WriteJSON(msg); err != nil {
		logger.Debug("stream write failed", zap.String("type", msg.Type), zap.Error(err))
		return false
	}
	return true
}
