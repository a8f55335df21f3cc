package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"finitefield.org/cinema-web/internal/catalog"
	"finitefield.org/cinema-web/internal/debounce"
	"finitefield.org/cinema-web/internal/query"
	"finitefield.org/cinema-web/internal/tmdb"
)

type sessionParams struct {
	id      string
	uiLang  string
	apiLang string
	logger  *zap.Logger
}

// session is one live connection, and also one supersede key: only a newer change
// on the same connection drops a pending result. The read loop owns state transitions; fetches
// run on their own goroutines and hand results to the writer via send.
type session struct {
	h      *Handler
	conn   *websocket.Conn
	key    string
	uiLang string
	lang   string
	logger *zap.Logger

	debouncer *debounce.Debouncer
	send      chan Outbound
	done      chan struct{}

	// mu orders state changes against result delivery so a superseded result can
	// never be queued after the newer request's loading frame.
	mu       sync.Mutex
	state    query.State
	ticket   catalog.Ticket
	ctx      context.Context
	received uint64
}

func newSession(h *Handler, conn *websocket.Conn, p sessionParams) *session {
	return &session{
		h:         h,
		conn:      conn,
		key:       "live:" + p.id,
		uiLang:    p.uiLang,
		lang:      p.apiLang,
		logger:    p.logger.With(zap.String("conn_id", p.id)),
		debouncer: debounce.New(h.opts.Debounce),
		send:      make(chan Outbound, sendBuffer),
		done:      make(chan struct{}),
		state:     query.Default(),
	}
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.ctx = ctx
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writePump()
	}()

	s.readPump()

	s.debouncer.Stop()
	close(s.done)
	s.h.opts.Tracker.Cancel(s.key)
	cancel()
	wg.Wait()
}

func (s *session) readPump() {
	defer s.conn.Close()
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.Warn("live read", zap.Error(err))
			}
			return
		}
		s.received++
		var msg Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Debug("live: malformed message", zap.Error(err))
			continue
		}
		s.handle(msg)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("live write", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (s *session) handle(msg Inbound) {
	switch msg.Type {
	case TypeInit:
		s.debouncer.Cancel()
		s.mu.Lock()
		s.state = query.ParseQuery(msg.URL)
		s.mu.Unlock()
	case TypeSearch:
		term := msg.Query
		s.debouncer.Trigger(func() {
			s.apply(func(cur query.State) query.State { return cur.SubmitSearch(term) })
		})
	default:
		// immediate actions win over a search still waiting out its quiet period
		s.debouncer.Cancel()
		s.mu.Lock()
		next, err := msg.Next(s.state)
		s.mu.Unlock()
		if err != nil {
			s.logger.Debug("live: rejected message", zap.String("type", msg.Type), zap.Error(err))
			return
		}
		s.apply(func(query.State) query.State { return next })
	}
}

// apply moves to the next state, tells the browser the new URL and starts the fetch.
func (s *session) apply(step func(query.State) query.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed() {
		return
	}
	next := step(s.state)
	if next.Equal(s.state) && s.ticket.Current() {
		return
	}
	s.state = next
	change := query.Rewrite(s.h.opts.Path, next, query.Replace)
	s.enqueue(Outbound{Type: TypeURL, URL: change.URL, Navigation: change.Navigation.String()})

	ctx, ticket := s.h.opts.Tracker.Begin(s.ctx, s.key)
	s.ticket = ticket
	s.enqueue(Outbound{Type: TypeLoading, Generation: ticket.Generation()})
	go s.fetch(ctx, ticket, next)
}

func (s *session) fetch(ctx context.Context, ticket catalog.Ticket, st query.State) {
	defer ticket.Release()
	listing, err := s.h.opts.Browser.Browse(ctx, st, s.lang)

	view := View{Lang: s.uiLang, State: st, Listing: listing, Err: err}
	out := Outbound{Generation: ticket.Generation()}
	if err != nil {
		if !ticket.Current() {
			return
		}
		s.logger.Warn("live fetch failed", zap.Error(err), zap.String("url", st.Href(s.h.opts.Path)))
		out.Type = TypeError
		out.Message = errorMessage(err)
	} else {
		out.Type = TypeResults
	}
	if s.h.opts.Render != nil {
		html, rerr := s.h.opts.Render(view)
		if rerr != nil {
			s.logger.Error("live render", zap.Error(rerr))
			out.Type = TypeError
			out.Message = rerr.Error()
		}
		out.HTML = html
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ticket.Current() || s.closed() {
		s.logger.Debug("live: dropped superseded result", zap.Uint64("generation", ticket.Generation()))
		return
	}
	s.enqueue(out)
}

// enqueue must be called with mu held.
func (s *session) enqueue(msg Outbound) {
	select {
	case s.send <- msg:
	case <-s.done:
	}
}

func (s *session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func errorMessage(err error) string {
	var fe *tmdb.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return err.Error()
}
