package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"scanguard/internal/dashboard"
	"scanguard/internal/monitoring"
)

const liveWriteTimeout = 5 * time.Second

var liveUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.serveLiveConnection(conn)
}

// serveLiveConnection sends a snapshot on connect and another one each
// time the document version moves, checked once per push interval.
func (s *Server) serveLiveConnection(conn *websocket.Conn) {
	defer conn.Close()

	id := uuid.NewString()[:8]
	monitoring.Logf("live client %s connected from %s", id, conn.RemoteAddr())
	defer monitoring.Logf("live client %s disconnected", id)

	snap := s.doc.Snapshot()
	if err := writeLivePayload(conn, snap); err != nil {
		return
	}
	sent := snap.Version

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			if s.doc.Version() == sent {
				continue
			}
			snap := s.doc.Snapshot()
			if err := writeLivePayload(conn, snap); err != nil {
				return
			}
			sent = snap.Version
		case <-done:
			return
		}
	}
}

func writeLivePayload(conn *websocket.Conn, payload dashboard.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	return conn.WriteJSON(payload)
}
