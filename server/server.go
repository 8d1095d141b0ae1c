package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ragdesk/ragdesk/internal/types"
	"github.com/ragdesk/ragdesk/pkg/bot"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the wire format both directions. Client types: "ask",
// "reset". Server types: "answer", "session", "error".
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// Server exposes the bot over a WebSocket. Each connection gets its
// own session id, so history follows the socket.
type Server struct {
	bot    *bot.Bot
	logger *slog.Logger
}

func New(b *bot.Bot, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{bot: b, logger: logger}
}

// Start serves the chat endpoint at /ws until the listener fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	s.logger.Info("websocket server listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	s.logger.Info("session opened", "session_id", sessionID)

	if err := conn.WriteJSON(Message{Type: "session", Content: sessionID}); err != nil {
		return
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("read failed", "session_id", sessionID, "error", err)
			}
			return
		}

		switch msg.Type {
		case "ask":
			s.handleAsk(r.Context(), conn, sessionID, msg.Content)
		case "reset":
			if err := s.bot.ClearSession(r.Context(), sessionID); err != nil {
				s.writeError(conn, err)
				continue
			}
			sessionID = uuid.NewString()
			conn.WriteJSON(Message{Type: "session", Content: sessionID})
		default:
			conn.WriteJSON(Message{Type: "error", Content: "unknown message type: " + msg.Type})
		}
	}
}

func (s *Server) handleAsk(ctx context.Context, conn *websocket.Conn, sessionID, question string) {
	answer, err := s.bot.Ask(ctx, sessionID, question)
	if err != nil {
		s.writeError(conn, err)
		return
	}

	reply := Message{
		Type:    "answer",
		Content: answer.Text,
		Data:    answer.Sources,
	}
	if answer.PersistWarning != nil {
		s.logger.Warn("answer returned without persisted history",
			"session_id", sessionID,
			"error", answer.PersistWarning,
		)
	}
	conn.WriteJSON(reply)
}

func (s *Server) writeError(conn *websocket.Conn, err error) {
	content := "internal error"
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		content = err.Error()
	case errors.Is(err, types.ErrGeneration):
		content = "the model could not produce an answer"
	case errors.Is(err, types.ErrRetrievalBackend):
		content = "a backend is unavailable, try again later"
	}
	s.logger.Error("ask failed", "error", err)
	conn.WriteJSON(Message{Type: "error", Content: content})
}
