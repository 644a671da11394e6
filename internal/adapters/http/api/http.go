// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/duel/internal/domain/types"
	"github.com/okian/duel/internal/duel"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	JoinQueue(ctx context.Context, userID int64) types.Result
	LeaveQueue(ctx context.Context, userID int64) types.Result
	QueueSnapshot(ctx context.Context) []int64

	LeaveRoom(ctx context.Context, userID int64) types.Result
	EndRoomByWinner(ctx context.Context, roomID string, winnerID int64, score string) types.Result
	EndRoomByTimer(ctx context.Context, roomID string) types.Result
	Rooms(ctx context.Context) []types.RoomView
	RoomByUser(ctx context.Context, userID int64) (types.RoomView, bool)
	RoomOccupant(ctx context.Context, roomID string, userID int64) bool
	DisplayName(ctx context.Context, userID int64) (string, error)

	Stats(ctx context.Context) duel.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	queueHandler  *QueueHandler
	roomsHandler  *RoomsHandler
	wsHandler     *WSHandler
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, wsHandler *WSHandler) *Server {
	return &Server{
		queueHandler:  NewQueueHandler(deps),
		roomsHandler:  NewRoomsHandler(deps),
		wsHandler:     wsHandler,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/queue", MetricsMiddleware(s.queueHandler.HandleQueue, "queue"))
	mux.HandleFunc("/rooms", MetricsMiddleware(s.roomsHandler.HandleRooms, "rooms"))
	mux.HandleFunc("/rooms/by-user", MetricsMiddleware(s.roomsHandler.HandleRoomByUser, "rooms_by_user"))
	mux.HandleFunc("/rooms/leave", MetricsMiddleware(s.roomsHandler.HandleLeave, "rooms_leave"))
	mux.HandleFunc("/rooms/end", MetricsMiddleware(s.roomsHandler.HandleEnd, "rooms_end"))
	mux.HandleFunc("/rooms/timeout", MetricsMiddleware(s.roomsHandler.HandleTimeout, "rooms_timeout"))
	if s.wsHandler != nil {
		mux.HandleFunc("/ws", s.wsHandler.HandleWS)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeResult maps an engine result to the wire: failures become 409s
// since they are state conflicts, not malformed requests.
func writeResult(w http.ResponseWriter, res types.Result) {
	if !res.Success {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
