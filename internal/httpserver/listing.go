package httpserver

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path"
	"strings"

	"fileroom/internal/tree"
)

//go:embed listing.html
var listingHTML string

var listingTmpl = template.Must(template.New("listing").Funcs(template.FuncMap{
	"fileURL": fileURL,
	"size":    humanSize,
	"isImage": func(name string) bool {
		return isImageExt(strings.ToLower(path.Ext(name)))
	},
}).Parse(listingHTML))

type listingPage struct {
	Title      string
	ParentHref string
	Root       *tree.Node
}

// renderListing turns a walked tree into the browsable HTML page. The tree
// is rebuilt per request, so the page always matches the filesystem at
// call time.
func (s *Server) renderListing(w http.ResponseWriter, r *http.Request, node *tree.Node) {
	page := listingPage{
		Title: "/" + node.RelPath,
		Root:  node,
	}
	if node.RelPath != "" {
		parent := path.Dir(node.RelPath)
		if parent == "." {
			parent = ""
		}
		page.ParentHref = fileURL(parent) + "/"
	}

	// Render to a buffer first so template failures can still become 500s.
	var buf bytes.Buffer
	if err := listingTmpl.Execute(&buf, page); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// fileURL maps a slash-relative node path to its /files/ URL, with path
// segments percent-escaped.
func fileURL(rel string) string {
	u := url.URL{Path: path.Join("/files", rel)}
	return u.EscapedPath()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
