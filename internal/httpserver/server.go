package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/webdav"

	"fileroom/internal/config"
	"fileroom/internal/fsutil"
	"fileroom/internal/metrics"
	"fileroom/internal/throttle"
	"fileroom/internal/tree"
)

type Options struct {
	Config config.Config
	// Limiter is the process-wide download budget; nil means unlimited.
	Limiter *throttle.Limiter
}

type Server struct {
	cfg     config.Config
	limiter *throttle.Limiter
	log     *logrus.Entry
}

func New(opts Options) (*Server, error) {
	if opts.Config.Root == "" {
		return nil, errors.New("httpserver: root is required")
	}
	return &Server{
		cfg:     opts.Config,
		limiter: opts.Limiter,
		log:     logrus.WithField("component", "http"),
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	// This server is private by intent; keep crawlers out.
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "User-agent: *\nDisallow: /\n")
	})

	// Landing page is the root listing.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/files/", http.StatusFound)
	})

	// browse + download
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/files/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/files/", s.handleFiles)

	// thumbnails
	mux.HandleFunc("/thumb", s.handleThumb)

	// LAN share QR code
	mux.HandleFunc("/qr", s.handleQR)

	// observability
	mux.Handle("/metrics", metrics.Handler())

	// Read-only WebDAV mount of the same tree. Write methods are refused:
	// the share is download-only.
	dav := &webdav.Handler{
		Prefix:     "/dav",
		FileSystem: webdav.Dir(s.cfg.Root),
		LockSystem: webdav.NewMemLS(),
	}
	mux.Handle("/dav/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET", "HEAD", "OPTIONS", "PROPFIND":
			dav.ServeHTTP(w, r)
		default:
			http.Error(w, "read-only share", http.StatusMethodNotAllowed)
		}
	}))

	return s.observe(mux)
}

// handleFiles is the browse/download entry point. Per request it moves
// through resolve -> stat -> {listing, stream, not found}; resolution
// failures are 403, unexpected I/O is the only 500 class.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/files")

	abs, err := fsutil.JoinWithinRoot(s.cfg.Root, rel)
	if err != nil {
		s.forbidden(w, r)
		return
	}

	st, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.notFound(w, r)
			return
		}
		s.internalError(w, r, fmt.Errorf("stat: %w", err))
		return
	}

	switch {
	case st.IsDir():
		s.listDirectory(w, r, abs)
	case st.Mode().IsRegular():
		s.streamFile(w, r, abs)
	default:
		// Sockets, devices, dangling symlink targets: not servable.
		s.notFound(w, r)
	}
}

func (s *Server) listDirectory(w http.ResponseWriter, r *http.Request, abs string) {
	node, err := tree.Walk(abs, s.cfg.Root)
	if err != nil {
		// No partial listings: a failed walk fails the whole request.
		s.internalError(w, r, err)
		return
	}
	s.renderListing(w, r, node)
}

// --- error taxonomy -> responses ---
// Short generic messages only; resolved paths never reach the client.

func (s *Server) forbidden(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "forbidden", http.StatusForbidden)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.log.WithField("path", r.URL.Path).Debug("not found")
	http.NotFound(w, r)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// --- middleware ---

// observe wraps the mux with request logging and metrics. Routes are
// labeled by prefix so /files/<anything> stays one metrics series.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		dur := time.Since(start)

		route := routeLabel(r.URL.Path)
		metrics.RecordHTTPRequest(r.Method, route, wrapped.status, dur)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.status,
			"remote":   r.RemoteAddr,
			"duration": dur.Round(time.Millisecond).String(),
		}).Debug("request")
	})
}

func routeLabel(path string) string {
	for _, p := range []string{"/files", "/dav", "/thumb", "/qr", "/metrics", "/healthz", "/robots.txt"} {
		if path == p || strings.HasPrefix(path, p+"/") {
			return p
		}
	}
	return "/"
}

// statusWriter captures the response status for logs and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
