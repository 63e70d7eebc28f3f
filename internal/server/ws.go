package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lexrag/lexrag/internal/pipeline"
)

const (
	wsWriteWait = 10 * time.Second
	wsReadWait  = 10 * time.Minute
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS middleware on the upgrade request.
		return true
	},
}

// handleAskStream upgrades to a WebSocket, reads one question and streams
// the pipeline's event sequence back to the client. The connection is
// closed after the terminal event.
func (s *Server) handleAskStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(wsReadWait))

	var req askRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Debug("websocket read failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Cancel the pipeline as soon as the client goes away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	q := pipeline.Query{
		ID:      requestID(r),
		Text:    req.Question,
		History: req.History,
	}

	s.logger.Info("streaming query started", zap.String("query_id", q.ID))

	events := s.pipe.Stream(ctx, q)
	for ev := range events {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("websocket write failed",
				zap.String("query_id", q.ID),
				zap.Error(err))
			cancel()
			// Drain remaining events so the pipeline goroutine can exit.
			for range events {
			}
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
