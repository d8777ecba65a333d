package httpserver

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	// decoders
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"fileroom/internal/fsutil"
)

const thumbMax = 256

// handleThumb serves small jpeg previews for image files in the listing.
// Thumbnails are cached on disk under the state dir, keyed by path and
// mtime so edits invalidate naturally.
func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	abs, err := fsutil.JoinWithinRoot(s.cfg.Root, r.URL.Query().Get("path"))
	if err != nil {
		s.forbidden(w, r)
		return
	}
	// Canonical relative form keys the cache, whatever shape the query had.
	rel := fsutil.RelToRoot(s.cfg.Root, abs)
	st, err := os.Stat(abs)
	if err != nil || !st.Mode().IsRegular() {
		s.notFound(w, r)
		return
	}
	if !isImageExt(strings.ToLower(filepath.Ext(abs))) {
		s.notFound(w, r)
		return
	}

	cacheDir := filepath.Join(s.cfg.StateDir, "thumbs")
	_ = os.MkdirAll(cacheDir, 0o755)
	cachePath := filepath.Join(cacheDir, fmt.Sprintf("%s-%d.jpg", thumbKey(rel), st.ModTime().Unix()))

	if b, err := os.ReadFile(cachePath); err == nil {
		serveThumb(w, b)
		return
	}

	b, err := makeThumb(abs, thumbMax)
	if err != nil {
		s.log.WithError(err).WithField("path", rel).Debug("thumbnail failed")
		s.notFound(w, r)
		return
	}
	_ = os.WriteFile(cachePath, b, 0o644)
	serveThumb(w, b)
}

func serveThumb(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(b)
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

// thumbKey flattens a rel path into a single cache filename component.
func thumbKey(rel string) string {
	if rel == "" {
		return "root"
	}
	repl := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return repl.Replace(rel)
}

// makeThumb decodes the image and scales its longer edge down to max,
// re-encoding as jpeg.
func makeThumb(absPath string, max int) ([]byte, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, os.ErrInvalid
	}

	nw, nh := w, h
	if w >= h && w > max {
		nw = max
		nh = h * max / w
	} else if h > w && h > max {
		nh = max
		nw = w * max / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 82}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
