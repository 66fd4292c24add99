package net

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Upgrader accepts sketch session connections from any origin; the session
// carries no credentials.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Peer is one connected sketch client.
type Peer struct {
	ID   string
	Conn *websocket.Conn
	mu   sync.Mutex
}

// Send writes v as a JSON message. Safe for concurrent use.
func (p *Peer) Send(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Conn.WriteJSON(v)
}

// PeerManager tracks the live sessions of a server.
type PeerManager struct {
	peers map[string]*Peer
	mu    sync.RWMutex
	log   *slog.Logger
}

func NewPeerManager(log *slog.Logger) *PeerManager {
	if log == nil {
		log = slog.Default()
	}
	return &PeerManager{peers: make(map[string]*Peer), log: log}
}

// Add registers conn and returns its peer.
func (pm *PeerManager) Add(conn *websocket.Conn) *Peer {
	p := &Peer{ID: uuid.NewString(), Conn: conn}
	pm.mu.Lock()
	pm.peers[p.ID] = p
	n := len(pm.peers)
	pm.mu.Unlock()
	pm.log.Info("peer connected", "peer", p.ID, "remote", conn.RemoteAddr().String(), "peers", n)
	return p
}

func (pm *PeerManager) Remove(p *Peer) {
	pm.mu.Lock()
	delete(pm.peers, p.ID)
	n := len(pm.peers)
	pm.mu.Unlock()
	pm.log.Info("peer disconnected", "peer", p.ID, "peers", n)
}

func (pm *PeerManager) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.peers)
}

// CloseAll sends a close frame to every peer and closes its connection.
func (pm *PeerManager) CloseAll() {
	pm.mu.RLock()
	peers := make([]*Peer, 0, len(pm.peers))
	for _, p := range pm.peers {
		peers = append(peers, p)
	}
	pm.mu.RUnlock()

	for _, p := range peers {
		p.mu.Lock()
		_ = p.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		p.mu.Unlock()
		_ = p.Conn.Close()
	}
}
