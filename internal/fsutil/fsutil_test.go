package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRelPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{".", ""},
		{"/", ""},
		{"  ", ""},
		{"a/b", "a/b"},
		{"/a/b", "a/b"},
		{"a//b", "a/b"},
		{"a/./b", "a/b"},
		{"a/b/..", "a"},
		{`a\b`, "a/b"},
		{"/a/b/", "a/b"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanRelPath(tc.in), "input %q", tc.in)
	}
}

func TestJoinWithinRootEmptyIsRoot(t *testing.T) {
	root := t.TempDir()
	for _, in := range []string{"", "/", "."} {
		got, err := JoinWithinRoot(root, in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, filepath.Clean(root), got)
	}
}

func TestJoinWithinRootAccepts(t *testing.T) {
	root := t.TempDir()

	got, err := JoinWithinRoot(root, "sub/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub", "file.txt"), got)

	// Redundant separators and dot segments collapse.
	got, err = JoinWithinRoot(root, "a//./b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "b"), got)

	// A leading slash is root-relative, not an absolute override.
	got, err = JoinWithinRoot(root, "/etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), got)

	// Dot-dot that stays inside root is fine.
	got, err = JoinWithinRoot(root, "a/b/../c")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "c"), got)
}

func TestJoinWithinRootRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	for _, in := range []string{
		"..",
		"../",
		"../../etc/passwd",
		"a/../../b",
		"a/../../../a",
		`..\..\etc`,
		"a\x00b",
	} {
		_, err := JoinWithinRoot(root, in)
		assert.ErrorIs(t, err, ErrForbidden, "input %q", in)
	}
}

func TestJoinWithinRootRejectsSiblingPrefix(t *testing.T) {
	// root=/tmp/x/files must not accept a path resolving into /tmp/x/files2.
	base := t.TempDir()
	root := filepath.Join(base, "files")
	_, err := JoinWithinRoot(root, "../files2/secret")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRelToRoot(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, "", RelToRoot(root, root))
	assert.Equal(t, "a/b", RelToRoot(root, filepath.Join(root, "a", "b")))
}
