package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/cache"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listview"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/scheduler"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Session is one browser list view: a connection, its orchestrator with a
// private page cache, and the render loop frames go through.
type Session struct {
	ID          string
	Resource    string
	ConnectedAt time.Time

	conn     *websocket.Conn
	initial  listquery.Coordinates
	view     *listview.Orchestrator
	store    *cache.BoundedPageCache
	renders  *scheduler.Loop
	send     chan OutboundMessage
	validate *validator.Validate
	logger   zerolog.Logger
	cfg      Config

	mu       sync.Mutex
	lastPing time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newSession(id, resource string, conn *websocket.Conn, fetcher listview.Fetcher, defaults listquery.Coordinates, cfg Config, validate *validator.Validate, logger zerolog.Logger) (*Session, error) {
	store, err := cache.NewBoundedPageCache(
		cache.WithName(resource),
		cache.WithCapacity(cfg.CacheCapacity),
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	s := &Session{
		ID:          id,
		Resource:    resource,
		ConnectedAt: now,
		conn:        conn,
		store:       store,
		send:        make(chan OutboundMessage, cfg.SendBuffer),
		validate:    validate,
		logger:      logger.With().Str("session", id).Str("resource", resource).Logger(),
		cfg:         cfg,
		lastPing:    now,
		ctx:         ctx,
		cancel:      cancel,
	}
	s.renders = scheduler.NewLoop(s.logger)

	view, err := listview.New(fetcher, listview.RendererFunc(s.render),
		listview.WithName(resource),
		listview.WithCache(store),
		listview.WithScheduler(s.renders),
		listview.WithLogger(s.logger),
		listview.WithDefaults(defaults),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	s.view = view
	return s, nil
}

// start runs the render loop and the write pump. The caller runs readPump.
func (s *Session) start() {
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.renders.Run(s.ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.writePump()
	}()
}

// render runs on the render loop. It blocks while the write pump is behind,
// which only delays this session.
func (s *Session) render(frame listview.Frame) {
	s.enqueue(OutboundMessage{Type: MessageTypeFrame, Frame: &frame})
}

func (s *Session) enqueue(msg OutboundMessage) {
	msg.Timestamp = time.Now()
	select {
	case s.send <- msg:
	case <-s.ctx.Done():
	}
}

func (s *Session) sendError(code string, err error) {
	s.enqueue(OutboundMessage{Type: MessageTypeError, Code: code, Error: err.Error()})
}

// readPump handles incoming messages until the connection fails.
func (s *Session) readPump() {
	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.touch()
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		s.touch()
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		s.handle(data)
	}
}

// handle applies one inbound message. Rejected messages leave the
// coordinates untouched and are answered with an error message.
func (s *Session) handle(data []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(CodeInvalidMessage, fmt.Errorf("malformed message: %w", err))
		return
	}
	if err := s.validate.Struct(msg); err != nil {
		s.sendError(CodeInvalidMessage, err)
		return
	}

	var err error
	switch msg.Type {
	case MessageTypeSetPage:
		err = s.view.SetPage(msg.Page)
	case MessageTypeSetPageSize:
		err = s.view.SetPageSize(msg.PageSize)
	case MessageTypeSetSearch:
		err = s.view.SetSearch(msg.SearchTerm)
	case MessageTypeSetStatus:
		err = s.view.SetStatus(listquery.StatusFilter(msg.Status))
	case MessageTypeSetType:
		err = s.view.SetType(listquery.TypeFilter(msg.TypeFilter))
	case MessageTypeSetSort:
		err = s.view.SetSort(listquery.ParseSortOption(msg.Sort))
	case MessageTypeResetFilters:
		err = s.view.ResetFilters()
	case MessageTypeRetry:
		err = s.view.Retry()
	case MessageTypePing:
		s.enqueue(OutboundMessage{Type: MessageTypePong})
	}

	if err != nil {
		s.logger.Debug().Err(err).Str("type", msg.Type).Msg("change rejected")
		s.sendError(errorCode(err), err)
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, listview.ErrPageOutOfRange):
		return CodePageOutOfRange
	case errors.Is(err, listview.ErrInvalidPageSize), errors.Is(err, listview.ErrInvalidFilter):
		return CodeInvalidValue
	case errors.Is(err, listview.ErrNothingToRetry):
		return CodeNothingToRetry
	case errors.Is(err, listview.ErrClosed):
		return CodeSessionClosed
	}
	return CodeInvalidMessage
}

// writePump handles outgoing messages and keepalive pings
func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug().Err(err).Msg("error writing message")
				s.conn.Close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug().Err(err).Msg("error sending ping")
				s.conn.Close()
				return
			}

		case <-s.ctx.Done():
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.cfg.WriteWait))
			return
		}
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastPing = time.Now()
	s.mu.Unlock()
}

// LastPing returns when the client was last heard from
func (s *Session) LastPing() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPing
}

// Info returns a snapshot of the session for statistics
func (s *Session) Info() SessionInfo {
	keys := s.store.Keys()
	cached := make([]string, len(keys))
	for i, key := range keys {
		cached[i] = key.String()
	}
	return SessionInfo{
		ID:          s.ID,
		Resource:    s.Resource,
		ConnectedAt: s.ConnectedAt,
		LastPing:    s.LastPing(),
		Coordinates: s.view.Coordinates(),
		State:       s.view.State(),
		Cache:       s.store.Stats(),
		CachedKeys:  cached,
		Renders:     s.renders.Stats(),
	}
}

// close stops the view and both pumps and closes the connection. It is safe
// to call more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.view.Close()
		s.cancel()
		s.wg.Wait()
		s.conn.Close()
	})
}
