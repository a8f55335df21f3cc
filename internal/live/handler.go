package live

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"finitefield.org/cinema-web/internal/catalog"
	"finitefield.org/cinema-web/internal/logging"
	mw "finitefield.org/cinema-web/internal/middleware"
	"finitefield.org/cinema-web/internal/query"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Browser loads one listing for a state.
type Browser interface {
	Browse(ctx context.Context, s query.State, lang string) (catalog.Listing, error)
}

// View is what a Renderer turns into the results fragment.
type View struct {
	Lang    string
	State   query.State
	Listing catalog.Listing
	// Err is the fetch failure, if any; Listing is then empty.
	Err error
}

// Renderer renders the results region for a view.
type Renderer func(View) (string, error)

// Options configures a Handler.
type Options struct {
	Browser  Browser
	Tracker  *catalog.Tracker
	Render   Renderer
	Debounce time.Duration
	// Path is the list page the rewritten URLs point at. Defaults to "/".
	Path string
	// Language maps the UI locale to the metadata API language.
	Language func(uiLang string) string
}

// Handler upgrades requests and serves one session per connection.
type Handler struct {
	opts     Options
	upgrader websocket.Upgrader
}

// NewHandler builds a Handler. A nil Tracker gets a private one.
func NewHandler(opts Options) *Handler {
	if opts.Tracker == nil {
		opts.Tracker = catalog.NewTracker()
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.Language == nil {
		opts.Language = func(l string) string { return l }
	}
	return &Handler{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logger.Warn("live upgrade failed", zap.Error(err))
		return
	}
	uiLang := mw.Lang(r)
	s := newSession(h, conn, sessionParams{
		id:      uuid.NewString(),
		uiLang:  uiLang,
		apiLang: h.opts.Language(uiLang),
		logger:  logger,
	})
	s.logger.Info("live connected")
	// the request context ends with the handler; the session owns its own lifetime
	s.run(context.WithoutCancel(r.Context()))
	s.logger.Info("live disconnected", zap.Uint64("messages", s.received))
}
