package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/service/action"
	"github.com/dkarki/twinfolio/internal/service/pipeline"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The CORS middleware already gates origins for the REST surface; the
	// widget connects from arbitrary embedding sites.
	CheckOrigin: func(*http.Request) bool { return true },
}

type inbound struct {
	Message      string `json:"message"`
	SessionID    string `json:"sessionId"`
	LanguageHint string `json:"languageHint"`
}

type outbound struct {
	Response  string         `json:"response"`
	SessionID string         `json:"sessionId"`
	Metadata  map[string]any `json:"metadata"`
	Error     string         `json:"error,omitempty"`
}

// Handler runs a bidirectional chat connection: each inbound frame is one
// user turn, each outbound frame one full pipeline answer.
type Handler struct {
	pipeline *pipeline.Service
	identity action.HeaderIdentity
	logger   *zap.Logger
}

func New(pipelineSvc *pipeline.Service, logger *zap.Logger) *Handler {
	return &Handler{pipeline: pipelineSvc, logger: logger.Named("ws")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	user := h.identity.FromRequest(r)

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		if msg.Message == "" {
			h.write(conn, outbound{Error: "message is required"})
			continue
		}

		response := h.pipeline.Handle(r.Context(), pipeline.Request{
			Message:      msg.Message,
			SessionID:    msg.SessionID,
			LanguageHint: msg.LanguageHint,
			User:         user,
		})

		h.write(conn, outbound{
			Response:  response.Response,
			SessionID: response.SessionID,
			Metadata:  response.Metadata,
		})
	}
}

func (h *Handler) write(conn *websocket.Conn, msg outbound) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
	}
}
