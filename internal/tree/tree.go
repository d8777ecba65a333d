// Package tree builds in-memory listings of the shared directory.
package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fileroom/internal/fsutil"
)

// Node is one filesystem entry in a listing. RelPath is always
// slash-separated and relative to the share root, so it drops into a URL
// path unchanged. Children is set only for directories, in listing order.
type Node struct {
	Name     string
	RelPath  string
	IsDir    bool
	Size     int64
	ModTime  time.Time
	Children []*Node
}

// NumEntries counts the nodes below (and including) n.
func (n *Node) NumEntries() int {
	total := 1
	for _, c := range n.Children {
		total += c.NumEntries()
	}
	return total
}

// Walk enumerates absDir into a Node tree. absDir must already be a
// resolved path under rootAbs (see fsutil.JoinWithinRoot).
//
// The walk is iterative with an explicit stack of pending directories, so
// pathological tree depth cannot exhaust the native call stack. Symlinks
// are never followed: a symlinked directory shows up as an opaque file
// node, which makes symlink cycles harmless. Any directory read failure
// aborts the whole walk; callers get a complete tree or none.
func Walk(absDir, rootAbs string) (*Node, error) {
	root := &Node{
		Name:    filepath.Base(absDir),
		RelPath: fsutil.RelToRoot(rootAbs, absDir),
		IsDir:   true,
	}
	if st, err := os.Stat(absDir); err == nil {
		root.ModTime = st.ModTime()
	}

	type pending struct {
		abs  string
		node *Node
	}
	stack := []pending{{abs: absDir, node: root}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ents, err := os.ReadDir(cur.abs)
		if err != nil {
			return nil, fmt.Errorf("read dir %q: %w", cur.node.RelPath, err)
		}

		children := make([]*Node, 0, len(ents))
		for _, e := range ents {
			info, err := e.Info()
			if err != nil {
				// Entry vanished between ReadDir and stat; not a listing fault.
				continue
			}
			child := &Node{
				Name:    e.Name(),
				RelPath: joinRel(cur.node.RelPath, e.Name()),
				IsDir:   e.IsDir(), // DirEntry type, lstat semantics: symlinks are not dirs
				ModTime: info.ModTime(),
			}
			if !child.IsDir {
				child.Size = info.Size()
			}
			children = append(children, child)
		}

		// Deterministic listing order: directories first, then
		// case-insensitive name.
		sort.SliceStable(children, func(i, j int) bool {
			if children[i].IsDir != children[j].IsDir {
				return children[i].IsDir
			}
			return strings.ToLower(children[i].Name) < strings.ToLower(children[j].Name)
		})
		cur.node.Children = children

		for _, c := range children {
			if c.IsDir {
				stack = append(stack, pending{abs: filepath.Join(cur.abs, c.Name), node: c})
			}
		}
	}
	return root, nil
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
