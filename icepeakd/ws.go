package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/silky/icepeak/icepeak"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func isWebSocketUpgrade(r *http.Request) bool {
	return websocket.IsWebSocketUpgrade(r)
}

// writePumpBufferSize bounds how many pending delivery messages a
// WebSocket connection's write pump will hold. A delivery that finds
// the buffer full closes the connection (drop-with-disconnect), which
// unsubscribes it.
const writePumpBufferSize = 16

// serveWebSocket upgrades the connection and subscribes it at path:
// the first message is the current value, every later message is the
// current value after a modification affecting path, and a read error
// or close unsubscribes and tears the connection down.
func serveWebSocket(c *gin.Context, coordinator *icepeak.Coordinator, path icepeak.Path) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		glog.Infof("icepeak: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	outgoing := make(chan icepeak.Value, writePumpBufferSize)
	deliver := func(value icepeak.Value) {
		select {
		case outgoing <- value:
		default:
			// the connection's write pump is backed up: drop the
			// subscriber rather than block the delivery worker. Closing
			// the connection ends readPump, which runs the deferred
			// Unsubscribe below.
			conn.Close()
		}
	}

	id := coordinator.Subscribe(path, deliver)
	defer coordinator.Unsubscribe(path, id)

	done := make(chan struct{})
	go writePump(conn, outgoing, done)
	readPump(conn, done)
}

func writePump(conn *websocket.Conn, outgoing <-chan icepeak.Value, done chan struct{}) {
	for {
		select {
		case value, ok := <-outgoing:
			if !ok {
				return
			}
			encoded, err := icepeak.MarshalValue(value)
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readPump drains inbound frames (a document-store subscription sends
// nothing, but gorilla/websocket requires reads to service control
// frames and to detect client-initiated close) until the connection
// errors or closes, then signals done so writePump and the deferred
// Unsubscribe above can run.
func readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
