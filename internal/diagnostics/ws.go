package diagnostics

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader mirrors signaling/server.go's permissive CheckOrigin: this is
// a bench debugging tool reachable only on the operator's own network,
// not a public-facing service.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// telemetryHandler streams one DiagnosticsSnapshot per push interval,
// replacing signaling/server.go's Redis pub/sub pump with a direct poll
// of the controller: there is no broker in this system, and the
// snapshot is cheap enough to sample on a timer.
func (s *Server) telemetryHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(telemetryPushInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteJSON(s.ctrl.Snapshot()); err != nil {
			return
		}
	}
}
