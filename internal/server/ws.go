package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/sells-group/company-lookup/internal/model"
)

// wsHandler upgrades GET /ws. The handshake accepts any origin: the
// browser client may be served from a different host than the API.
func (s *Server) wsHandler() http.Handler {
	return websocket.Server{
		Handshake: func(cfg *websocket.Config, r *http.Request) error { return nil },
		Handler:   websocket.Handler(s.serveWS),
	}
}

func (s *Server) serveWS(conn *websocket.Conn) {
	id := s.hub.Register(conn)
	defer func() {
		s.hub.Unregister(id)
		conn.Close()
	}()

	if err := websocket.JSON.Send(conn, connectionEstablishedMessage{
		Type:    typeConnectionEstablished,
		Message: "WebSocket connection established",
	}); err != nil {
		zap.L().Warn("websocket: send greeting", zap.String("client_id", id), zap.Error(err))
		return
	}

	for {
		var msg clientMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			if err != io.EOF {
				zap.L().Warn("websocket: receive", zap.String("client_id", id), zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case typePing:
			s.sendTo(conn, id, pongMessage{Type: typePong, Timestamp: time.Now().UnixMilli()})
		case typeSearch:
			s.runClientSearch(conn, id, msg.Companies)
		case typeClientInfo, typeClientConnected:
			zap.L().Info("websocket: client message",
				zap.String("client_id", id),
				zap.String("type", msg.Type),
			)
		default:
			s.sendTo(conn, id, errorMessage{
				Type:    typeError,
				Message: fmt.Sprintf("unknown message type: %q", msg.Type),
			})
		}
	}
}

// runClientSearch validates and runs a batch requested over the socket.
// Progress and results reach the client through the hub broadcast.
func (s *Server) runClientSearch(conn *websocket.Conn, id string, companies []string) {
	if len(companies) > s.maxBatch {
		s.sendTo(conn, id, errorMessage{
			Type:    typeError,
			Message: fmt.Sprintf("Too many companies. Maximum limit is %d.", s.maxBatch),
		})
		return
	}

	names := model.NormalizeCompanyNames(companies)
	if len(names) == 0 {
		s.sendTo(conn, id, errorMessage{
			Type:    typeError,
			Message: "Invalid input. Please provide an array of company names.",
		})
		return
	}

	if !s.batchMu.TryLock() {
		s.sendTo(conn, id, errorMessage{
			Type:    typeError,
			Message: "A search is already running.",
		})
		return
	}
	defer s.batchMu.Unlock()

	// Detached from the socket's request context: a dropped connection must
	// not fail the remaining companies, and other hub clients still receive
	// the broadcasts.
	s.proc.ProcessBatch(context.WithoutCancel(conn.Request().Context()), names)
}

func (s *Server) sendTo(conn *websocket.Conn, id string, v any) {
	if err := websocket.JSON.Send(conn, v); err != nil {
		zap.L().Warn("websocket: send", zap.String("client_id", id), zap.Error(err))
	}
}
