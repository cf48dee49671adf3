package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader upgrades the build-progress endpoint; origins are left
// unrestricted since the stream only carries progress counters, never
// index content.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// BuildProgressMessage is one frame pushed over the /admin/build/stream
// WebSocket while a reload is in flight.
type BuildProgressMessage struct {
	Type      string `json:"type"` // "progress", "done", "error"
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StreamReload upgrades the connection, triggers a Reload of the saved
// artifact, and pushes the progress frame Reload reports once the snapshot
// is loaded, followed by a "done" or "error" frame.
func (h *Handlers) StreamReload(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("build stream: failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	progress := func(processed, total int) {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(BuildProgressMessage{Type: "progress", Processed: processed, Total: total}); err != nil {
			log.Printf("build stream: write failed: %v", err)
		}
	}

	if _, err := h.Reload(progress); err != nil {
		conn.WriteJSON(BuildProgressMessage{Type: "error", Error: err.Error()})
		return
	}

	conn.WriteJSON(BuildProgressMessage{Type: "done"})
}
