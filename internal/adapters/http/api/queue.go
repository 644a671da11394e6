package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/duel/internal/domain/types"
)

// QueueHandler handles wait-queue requests.
type QueueHandler struct {
	deps Dependencies
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(deps Dependencies) *QueueHandler {
	return &QueueHandler{deps: deps}
}

// queueRequest is the body for POST and DELETE /queue.
type queueRequest struct {
	UserID int64 `json:"user_id"`
}

func (q queueRequest) validate() error {
	if q.UserID <= 0 {
		return errors.New("user_id must be a positive integer")
	}
	return nil
}

// HandleQueue dispatches on method:
//
//	POST   /queue  join the wait queue
//	DELETE /queue  leave the wait queue
//	GET    /queue  list waiting users in order
func (h *QueueHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	const op = "api.queue"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, types.QueueView{Users: h.deps.QueueSnapshot(r.Context())})
	case http.MethodPost:
		var req queueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeResult(w, h.deps.JoinQueue(r.Context(), req.UserID))
	case http.MethodDelete:
		var req queueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeResult(w, h.deps.LeaveQueue(r.Context(), req.UserID))
	default:
		http.NotFound(w, r)
	}
}
