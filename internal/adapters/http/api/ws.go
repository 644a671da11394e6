package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/okian/duel/internal/adapters/notify"
	"github.com/okian/duel/pkg/logger"
)

// WSHandler upgrades room occupants onto the notification hub.
type WSHandler struct {
	deps     Dependencies
	hub      *notify.Hub
	upgrader websocket.Upgrader
	log      logger.Logger
}

// NewWSHandler creates the websocket handler bound to a hub.
func NewWSHandler(deps Dependencies, hub *notify.Hub) *WSHandler {
	return &WSHandler{
		deps: deps,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger.Get().Named("ws"),
	}
}

// HandleWS handles GET /ws?room=<id>&user=<id>. Only a current occupant
// of the room may subscribe to its events.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	const op = "api.ws"
	roomID := r.URL.Query().Get("room")
	userID, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
	if roomID == "" || err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if !h.deps.RoomOccupant(r.Context(), roomID, userID) {
		writeError(w, http.StatusForbidden, "not_occupant", NewKind(op, ErrNotFound))
		return
	}

	name, err := h.deps.DisplayName(r.Context(), userID)
	if err != nil {
		name = "user " + strconv.FormatInt(userID, 10)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	// The request context dies when this handler returns; the pumps
	// outlive it and stop on connection close instead.
	ctx := context.Background()
	client := notify.NewClient(h.hub, conn, roomID, userID, name)
	h.hub.Join(client)
	go client.WritePump(ctx)
	go client.ReadPump(ctx)
}
