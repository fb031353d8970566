package websocket

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrManagerStopped is returned by Serve once Stop has been called.
var ErrManagerStopped = errors.New("websocket manager stopped")

// Config tunes sessions and keepalive
type Config struct {
	CacheCapacity       int
	SendBuffer          int
	MaxMessageSize      int64
	PingInterval        time.Duration
	PongWait            time.Duration
	WriteWait           time.Duration
	IdleTimeout         time.Duration
	HealthCheckInterval time.Duration
	// AllowedOrigins empty or containing "*" accepts any origin.
	AllowedOrigins []string
}

// DefaultConfig returns the keepalive settings browsers cope with well
func DefaultConfig() Config {
	return Config{
		CacheCapacity:       12,
		SendBuffer:          32,
		MaxMessageSize:      4096,
		PingInterval:        54 * time.Second,
		PongWait:            60 * time.Second,
		WriteWait:           10 * time.Second,
		IdleTimeout:         90 * time.Second,
		HealthCheckInterval: 30 * time.Second,
	}
}

// Manager keeps the open list view sessions
type Manager struct {
	sessions   map[string]*Session
	register   chan *Session
	unregister chan *Session
	mutex      sync.RWMutex

	upgrader websocket.Upgrader
	source   ViewSource
	validate *validator.Validate
	cfg      Config
	logger   zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a new WebSocket manager
func NewManager(source ViewSource, cfg Config, logger zerolog.Logger) *Manager {
	m := &Manager{
		sessions:   make(map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		source:     source,
		validate:   validator.New(),
		cfg:        cfg,
		logger:     logger.With().Str("component", "websocket").Logger(),
		done:       make(chan struct{}),
	}
	m.upgrader = websocket.Upgrader{
		CheckOrigin:     m.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return m
}

// Start begins the WebSocket manager's main loop
func (m *Manager) Start() error {
	go m.run()
	m.logger.Info().Msg("WebSocket manager started")
	return nil
}

// Stop closes every session and waits for them to finish
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() {
		close(m.done)

		m.mutex.Lock()
		sessions := make([]*Session, 0, len(m.sessions))
		for id, s := range m.sessions {
			sessions = append(sessions, s)
			delete(m.sessions, id)
		}
		m.mutex.Unlock()

		for _, s := range sessions {
			s.close()
		}
		m.wg.Wait()
		m.logger.Info().Int("sessions", len(sessions)).Msg("WebSocket manager stopped")
	})
	return nil
}

// run is the main event loop for the WebSocket manager
func (m *Manager) run() {
	interval := m.cfg.HealthCheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case s := <-m.register:
			m.mutex.Lock()
			m.sessions[s.ID] = s
			m.mutex.Unlock()
			m.logger.Debug().Str("session", s.ID).Str("resource", s.Resource).Msg("session registered")
			go m.handleSession(s)

		case s := <-m.unregister:
			m.mutex.Lock()
			delete(m.sessions, s.ID)
			m.mutex.Unlock()
			m.logger.Debug().Str("session", s.ID).Msg("session unregistered")

		case <-ticker.C:
			m.healthCheck()

		case <-m.done:
			return
		}
	}
}

// Serve upgrades the request and opens a list view over resource. initial
// replaces the resource's default coordinates when set. Unknown resources
// are rejected before the upgrade so the caller can still answer with HTTP.
func (m *Manager) Serve(w http.ResponseWriter, r *http.Request, resource string, initial *listquery.Coordinates) error {
	select {
	case <-m.done:
		return ErrManagerStopped
	default:
	}

	fetcher, defaults, err := m.source.View(resource)
	if err != nil {
		return err
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}

	s, err := newSession(uuid.NewString(), strings.ToLower(strings.TrimSpace(resource)), conn, fetcher, defaults, m.cfg, m.validate, m.logger)
	if err != nil {
		conn.Close()
		return err
	}

	coords := defaults
	if initial != nil {
		coords = *initial
	}
	s.initial = coords
	s.start()

	m.wg.Add(1)
	select {
	case m.register <- s:
		return nil
	case <-m.done:
		m.wg.Done()
		s.close()
		return ErrManagerStopped
	}
}

// handleSession owns a session from registration until its connection ends.
func (m *Manager) handleSession(s *Session) {
	defer m.wg.Done()
	defer s.close()
	defer func() {
		select {
		case m.unregister <- s:
		case <-m.done:
		}
	}()

	s.enqueue(OutboundMessage{
		Type:      MessageTypeConnectionConfirmed,
		SessionID: s.ID,
		Resource:  s.Resource,
	})
	if err := s.view.Load(s.initial); err != nil {
		s.logger.Warn().Err(err).Msg("initial load failed")
		return
	}

	s.readPump()
}

// UnregisterClient closes the session with the given id
func (m *Manager) UnregisterClient(sessionID string) error {
	m.mutex.RLock()
	s, exists := m.sessions[sessionID]
	m.mutex.RUnlock()

	if !exists {
		return fmt.Errorf("session %s not found", sessionID)
	}
	// readPump fails on the closed connection and handleSession cleans up
	s.conn.Close()
	return nil
}

// GetConnectedClients returns the number of open sessions
func (m *Manager) GetConnectedClients() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// GetClientStats returns per-session statistics, oldest session first
func (m *Manager) GetClientStats() ClientStats {
	m.mutex.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mutex.RUnlock()

	stats := ClientStats{
		TotalClients: len(sessions),
		ByResource:   make(map[string]int),
		Sessions:     make([]SessionInfo, 0, len(sessions)),
	}
	for _, s := range sessions {
		stats.ByResource[s.Resource]++
		stats.Sessions = append(stats.Sessions, s.Info())
	}
	sort.Slice(stats.Sessions, func(i, j int) bool {
		return stats.Sessions[i].ConnectedAt.Before(stats.Sessions[j].ConnectedAt)
	})
	return stats
}

// healthCheck closes sessions that have not been heard from within
// IdleTimeout.
func (m *Manager) healthCheck() {
	if m.cfg.IdleTimeout <= 0 {
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	now := time.Now()
	for id, s := range m.sessions {
		if now.Sub(s.LastPing()) > m.cfg.IdleTimeout {
			m.logger.Info().Str("session", id).Msg("session timed out, closing")
			s.conn.Close()
		}
	}
}

func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(m.cfg.AllowedOrigins) == 0 {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range m.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimRight(allowed, "/"), u.Scheme+"://"+u.Host) {
			return true
		}
	}
	return false
}
