package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// RoomsHandler handles live-room queries and termination requests.
type RoomsHandler struct {
	deps Dependencies
}

// NewRoomsHandler creates a new rooms handler.
func NewRoomsHandler(deps Dependencies) *RoomsHandler {
	return &RoomsHandler{deps: deps}
}

// HandleRooms handles GET /rooms.
func (h *RoomsHandler) HandleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Rooms(r.Context()))
}

// HandleRoomByUser handles GET /rooms/by-user?user=<id>.
func (h *RoomsHandler) HandleRoomByUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.room_by_user"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	room, ok := h.deps.RoomByUser(r.Context(), userID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// leaveRequest is the body for POST /rooms/leave.
type leaveRequest struct {
	UserID int64 `json:"user_id"`
}

// HandleLeave handles POST /rooms/leave.
func (h *RoomsHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	const op = "api.room_leave"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req leaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	writeResult(w, h.deps.LeaveRoom(r.Context(), req.UserID))
}

// endRequest is the body for POST /rooms/end.
type endRequest struct {
	RoomID   string `json:"room_id"`
	WinnerID int64  `json:"winner_id"`
	Score    string `json:"score"`
}

func (e endRequest) validate() error {
	switch {
	case e.RoomID == "":
		return errors.New("missing room_id")
	case e.WinnerID <= 0:
		return errors.New("winner_id must be a positive integer")
	}
	return nil
}

// HandleEnd handles POST /rooms/end: a declared-winner termination.
func (h *RoomsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	const op = "api.room_end"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeResult(w, h.deps.EndRoomByWinner(r.Context(), req.RoomID, req.WinnerID, req.Score))
}

// timeoutRequest is the body for POST /rooms/timeout.
type timeoutRequest struct {
	RoomID string `json:"room_id"`
}

// HandleTimeout handles POST /rooms/timeout: a timer-expiry termination.
func (h *RoomsHandler) HandleTimeout(w http.ResponseWriter, r *http.Request) {
	const op = "api.room_timeout"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req timeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.RoomID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	writeResult(w, h.deps.EndRoomByTimer(r.Context(), req.RoomID))
}
