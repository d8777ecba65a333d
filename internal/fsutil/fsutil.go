package fsutil

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrForbidden is returned when a request path would resolve outside the
// served root. Handlers map it to 403 and must not echo the resolved path.
var ErrForbidden = errors.New("path escapes root")

// CleanRelPath takes a path like "", ".", "/a/b", "a//b", and returns a
// slash-based, no-leading-slash relative path ("" means root). It is a
// display/URL normalizer for paths that already passed JoinWithinRoot,
// not a containment check.
func CleanRelPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "." || p == "/" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p) // force absolute for stable cleaning
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// JoinWithinRoot resolves an untrusted request path against root and
// enforces containment. The join is purely lexical (filepath.Join cleans
// "." and ".." segments); the result is then verified to be root itself or
// root+separator+..., so a ".." escape fails and a sibling directory whose
// name merely shares root's prefix (/data/files2 vs /data/files) cannot
// pass. A leading slash is treated as root-relative, which neutralizes
// absolute-path injection.
func JoinWithinRoot(rootAbs string, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if strings.Contains(rel, "\x00") {
		return "", ErrForbidden
	}
	rel = strings.ReplaceAll(rel, "\\", "/")
	rootClean := filepath.Clean(rootAbs)
	absClean := filepath.Join(rootClean, filepath.FromSlash(rel))
	if absClean != rootClean && !strings.HasPrefix(absClean, rootClean+string(filepath.Separator)) {
		return "", ErrForbidden
	}
	return absClean, nil
}

// RelToRoot converts an absolute path under root back to the slash-based
// relative form used in URLs and listings ("" for root itself).
func RelToRoot(rootAbs, abs string) string {
	rel, err := filepath.Rel(filepath.Clean(rootAbs), filepath.Clean(abs))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
