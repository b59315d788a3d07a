package livechannel

import (
	"encoding/json"
	"net/http"
	"time"

	"auction-bidding/internal/auth"
	"auction-bidding/internal/directory"
	"auction-bidding/internal/models"
	"auction-bidding/utils"

	"github.com/gorilla/websocket"
)

// Verifier resolves a handshake token to an identity
type Verifier interface {
	Verify(token string) (string, error)
}

// Server upgrades authenticated requests to live connections and pushes
// messages to them by identity
type Server struct {
	verifier  Verifier
	directory *directory.Directory
	upgrader  websocket.Upgrader

	pingPeriod time.Duration
	pongWait   time.Duration
}

// Option customizes a Server
type Option func(*Server)

// WithKeepalive overrides the ping period and pong wait
func WithKeepalive(pingPeriod, pongWait time.Duration) Option {
	return func(s *Server) {
		s.pingPeriod = pingPeriod
		s.pongWait = pongWait
	}
}

// WithCheckOrigin sets the origin policy used during the upgrade
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}

// NewServer creates a Server that binds connections in dir
func NewServer(verifier Verifier, dir *directory.Directory, opts ...Option) *Server {
	s := &Server{
		verifier:  verifier,
		directory: dir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingPeriod: PingPeriod,
		pongWait:   PongWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func handshakeToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	token, _ := auth.BearerToken(r.Header.Get("Authorization"))
	return token
}

// ServeHTTP authenticates the handshake, upgrades, and binds the connection to its identity
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := s.verifier.Verify(handshakeToken(r))
	if err != nil {
		utils.Warn("Rejected live channel handshake", map[string]any{
			"remote_addr": r.RemoteAddr,
			"error":       err.Error(),
		})
		utils.WriteJSONError(w, http.StatusUnauthorized, err, "token is not valid")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		utils.Warn("Live channel upgrade failed", map[string]any{
			"identity": identity,
			"error":    err.Error(),
		})
		return
	}

	conn := newConnection(identity, ws, s.pingPeriod, s.pongWait)
	if previous := s.directory.Bind(identity, conn); previous != nil {
		_ = previous.Close()
	}
	conn.markBound()

	utils.Info("Live channel connected", map[string]any{
		"identity":      identity,
		"connection_id": conn.id,
	})

	go conn.writePump()
	go s.serveConnection(conn)
}

func (s *Server) serveConnection(conn *connection) {
	conn.readLoop()
	_ = conn.Close()
	s.directory.Release(conn.identity, conn)

	utils.Info("Live channel disconnected", map[string]any{
		"identity":      conn.identity,
		"connection_id": conn.id,
	})
}

// PushTo delivers msg to identity if it is connected. Undeliverable messages are dropped.
func (s *Server) PushTo(identity string, msg models.PushMessage) {
	handle, ok := s.directory.Lookup(identity)
	if !ok {
		utils.Debug("No live connection for push", map[string]any{"identity": identity})
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		utils.Error("Failed to encode push message", map[string]any{"error": err.Error()})
		return
	}

	if err := handle.Send(payload); err != nil {
		utils.Warn("Dropped push message", map[string]any{
			"identity": identity,
			"error":    err.Error(),
		})
	}
}

// Connections returns the number of bound identities
func (s *Server) Connections() int {
	return s.directory.Len()
}
