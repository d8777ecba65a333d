package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fileroom/internal/metrics"
)

// chunkSize is the unit of throttled transfer. Budget is acquired per
// chunk, which bounds peak memory and keeps throttling fine-grained no
// matter how large the file is.
const chunkSize = 64 * 1024

// streamFile drains the file at abs to the client through the shared
// bandwidth limiter. abs must already be resolved and stat'ed as a file by
// the caller; the open is re-checked so a file deleted in between turns
// into 404 rather than 500.
func (s *Server) streamFile(w http.ResponseWriter, r *http.Request, abs string) {
	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.notFound(w, r)
			return
		}
		s.internalError(w, r, fmt.Errorf("open: %w", err))
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		s.internalError(w, r, fmt.Errorf("stat: %w", err))
		return
	}
	if !st.Mode().IsRegular() {
		s.notFound(w, r)
		return
	}

	// Files are always opaque downloads, never rendered inline.
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+EncodeDispositionFilename(st.Name()))
	w.Header().Set("Content-Length", strconv.FormatInt(st.Size(), 10))

	finish := metrics.DownloadStarted()
	defer finish()

	ctx := r.Context()
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, chunkSize)
	start := time.Now()
	var sent int64

	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			waitStart := time.Now()
			if err := s.limiter.Acquire(ctx, n); err != nil {
				// Client went away while we waited for budget.
				s.logAborted(r, sent, err)
				metrics.RecordDownload(sent, false)
				return
			}
			metrics.RecordThrottleWait(time.Since(waitStart))

			wn, werr := w.Write(buf[:n])
			sent += int64(wn)
			if werr != nil {
				// Disconnects mid-stream are expected, not server faults.
				s.logAborted(r, sent, werr)
				metrics.RecordDownload(sent, false)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			// Status and headers are already on the wire; all we can do is
			// cut the stream short and let operators know.
			s.log.WithError(rerr).WithField("path", r.URL.Path).Error("read failed mid-stream")
			metrics.RecordDownload(sent, false)
			return
		}
	}

	metrics.RecordDownload(sent, true)
	s.log.WithFields(logrus.Fields{
		"path":     r.URL.Path,
		"bytes":    sent,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Info("download complete")
}

func (s *Server) logAborted(r *http.Request, sent int64, err error) {
	s.log.WithFields(logrus.Fields{
		"path":  r.URL.Path,
		"bytes": sent,
		"cause": err.Error(),
	}).Debug("download aborted by client")
}

// EncodeDispositionFilename encodes a filename for the RFC 5987 extended
// filename*=UTF-8'' syntax. Besides standard URI-component escaping it
// also escapes ' ( ) (legal in a URI component but unsafe in the header's
// quoting rules) and *, which carries meaning in the extended syntax, and
// keeps spaces literal for readability. Conforming clients percent-decode
// the value back to the exact original UTF-8 name.
func EncodeDispositionFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range []byte(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '_' || c == '.' || c == '!' || c == '~' || c == ' ':
			b.WriteByte(c)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}
