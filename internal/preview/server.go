// Package preview serves an element document over HTTP and reloads open
// pages when the document changes on disk.
package preview

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/document"
	"github.com/conneroisu/mimic/internal/element"
	"github.com/conneroisu/mimic/internal/errors"
	"github.com/conneroisu/mimic/internal/logging"
	"github.com/conneroisu/mimic/internal/version"
	"github.com/conneroisu/mimic/internal/watcher"
	"github.com/conneroisu/mimic/internal/websocket"
)

const reloadScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  var ws = new WebSocket(proto + "//" + location.host + "/ws");
  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    if (msg.type === "reload" || msg.type === "error") { location.reload(); }
  };
})();
</script>
`

var errNotLoaded = stderrors.New("document has not been loaded")

// Server serves one document with live reload.
type Server struct {
	path   string
	addr   string
	logger logging.Logger

	mu       sync.RWMutex
	root     *element.Node
	loadErr  error
	loadedAt time.Time

	hub     *websocket.Hub
	watcher *watcher.FileWatcher

	serverMutex  sync.Mutex
	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
}

// New creates a preview server for the document at path and performs the
// first load. A document that fails to load is reported on the page rather
// than failing construction.
func New(cfg *config.Config, path string, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	logger = logger.WithComponent("preview")

	fileWatcher, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return nil, errors.NewInternalError(errors.CodeWatchSetup, "failed to create file watcher", err)
	}

	s := &Server{
		path:    path,
		addr:    cfg.Address(),
		logger:  logger,
		hub:     websocket.NewHub(logger, cfg.Server.Host, "localhost:*", "127.0.0.1:*"),
		watcher: fileWatcher,
	}

	if err := s.Reload(); err != nil {
		logger.Warn(context.Background(), err, "Initial document load failed", "path", path)
	}

	return s, nil
}

// Reload rereads the document. On failure the previous tree is kept for
// queries but pages show the error until a load succeeds. Connected pages
// are told to refresh either way.
func (s *Server) Reload() error {
	root, err := document.LoadFile(s.path)

	s.mu.Lock()
	if err == nil {
		s.root = root
		s.loadedAt = time.Now()
	}
	s.loadErr = err
	s.mu.Unlock()

	msg := websocket.UpdateMessage{Type: websocket.MessageReload, Target: s.path}
	if err != nil {
		msg = websocket.UpdateMessage{Type: websocket.MessageError, Target: s.path, Content: err.Error()}
	}
	if berr := s.hub.Broadcast(msg); berr != nil {
		s.logger.Debug(context.Background(), "Reload broadcast skipped", "reason", berr.Error())
	}

	return err
}

// Tree returns the current tree and the error from the latest load.
func (s *Server) Tree() (*element.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loadErr != nil {
		return s.root, s.loadErr
	}
	if s.root == nil {
		return nil, errNotLoaded
	}
	return s.root, nil
}

// Handler returns the HTTP routes of the preview server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/find", s.handleFind)
	mux.Handle("/", templ.Handler(s.page(), templ.WithErrorHandler(s.errorPage)))
	return mux
}

func (s *Server) page() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		root, err := s.Tree()
		if err != nil {
			return err
		}
		if err := root.Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, reloadScript)
		return err
	})
}

func (s *Server) errorPage(r *http.Request, err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn(r.Context(), err, "Serving error page", "path", s.path)

		pre := element.MustNew("pre", element.A("class", "mimic-error"), element.Text(html.EscapeString(err.Error())))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		if rerr := pre.Render(r.Context(), w); rerr != nil {
			return
		}
		io.WriteString(w, reloadScript)
	})
}

type healthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Document  string    `json:"document"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	Clients   int       `json:"clients"`
	LastError string    `json:"last_error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	resp := healthResponse{
		Status:   "healthy",
		Version:  version.GetShortVersion(),
		Document: s.path,
		LoadedAt: s.loadedAt,
		Clients:  s.hub.ClientCount(),
	}
	if s.loadErr != nil {
		resp.Status = "degraded"
		resp.LastError = s.loadErr.Error()
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, resp)
}

// FoundElement is one match returned by the find endpoint.
type FoundElement struct {
	Tag  string `json:"tag"`
	ID   string `json:"id,omitempty"`
	HTML string `json:"html"`
}

// handleFind answers ?id=, ?tag= or ?attr=&value= queries against the
// last successfully loaded tree.
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	root := s.root
	s.mu.RUnlock()
	if root == nil {
		http.Error(w, errNotLoaded.Error(), http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	var nodes []*element.Node
	switch {
	case q.Has("id"):
		nodes = element.FindByID(root, q.Get("id"))
	case q.Has("tag"):
		nodes = element.FindByTagName(root, q.Get("tag"))
	case q.Has("attr"):
		nodes = element.FindByAttributeText(root, q.Get("attr"), q.Get("value"))
	default:
		http.Error(w, "one of id, tag or attr is required", http.StatusBadRequest)
		return
	}

	renderer := element.NewRenderer(element.WithEcho(nil), element.WithLogger(s.logger))
	found := make([]FoundElement, 0, len(nodes))
	for _, n := range nodes {
		found = append(found, FoundElement{Tag: n.Tag(), ID: n.ID(), HTML: renderer.RenderAt(n, 1)})
	}

	writeJSON(w, http.StatusOK, found)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Start watches the document and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.watcher.WatchFile(s.path); err != nil {
		return errors.NewIOError(errors.CodeWatchSetup, "failed to watch document", err).WithPath(s.path)
	}
	s.watcher.AddHandler(s.handleFileChange)
	if err := s.watcher.Start(ctx); err != nil {
		return errors.NewInternalError(errors.CodeWatchSetup, "failed to start file watcher", err)
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.NewIOError(errors.CodeServerListen, "failed to listen", err).WithContext("addr", s.addr)
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.serverMutex.Lock()
	s.httpServer = server
	s.listener = ln
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, err, "Preview server shutdown failed")
		}
	}()

	s.logger.Info(ctx, "Preview server listening", "url", fmt.Sprintf("http://%s", ln.Addr()), "document", s.path)
	if err := server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.serverMutex.Lock()
	defer s.serverMutex.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleFileChange(events []watcher.ChangeEvent) error {
	for _, event := range events {
		s.logger.Info(context.Background(), "Document changed", "path", event.Path, "type", event.Type.String())
	}
	if err := s.Reload(); err != nil {
		s.logger.Warn(context.Background(), err, "Document reload failed", "path", s.path)
	}
	return nil
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.hub.Shutdown(ctx)
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn(ctx, err, "Stopping file watcher failed")
		}

		s.serverMutex.Lock()
		server := s.httpServer
		s.serverMutex.Unlock()
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}
