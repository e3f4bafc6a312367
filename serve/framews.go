package serve

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	// Time allowed to write message to the client
	writeWait = 10 * time.Second
)

// FrameSocket streams JPEG frames to websocket clients, one binary message
// per frame.
type FrameSocket struct {
	Camera Camera

	upgrader websocket.Upgrader
}

func NewFrameSocket(c Camera) *FrameSocket {
	return &FrameSocket{
		Camera: c,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

func (f *FrameSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.WithField("addr", r.RemoteAddr).Errorf("Websocket handshake failed for frame stream: %v", err)
		}
		return
	}
	f.serve(r.Context(), ws)
}

func (f *FrameSocket) serve(ctx context.Context, ws *websocket.Conn) {
	clog := log.WithField("addr", ws.RemoteAddr())
	clog.Info("connected to frame socket")
	defer func() {
		ws.Close()
		clog.Info("disconnected from frame socket")
	}()

	// Even though we don't care about incoming messages, we need to read from
	// the socket in order to process control messages.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		default:
		}
		jpeg := f.Camera.GetFrame()
		ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.BinaryMessage, jpeg); err != nil {
			return
		}
	}
}
