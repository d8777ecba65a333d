package httpserver

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDispositionFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain.txt", "plain.txt"},
		{"my file.txt", "my file.txt"},
		{"my file (v2)*.txt", "my file %28v2%29%2A.txt"},
		{"it's.txt", "it%27s.txt"},
		{"a+b&c#d.txt", "a%2Bb%26c%23d.txt"},
		{"100%.txt", "100%25.txt"},
		{"héllo.bin", "h%C3%A9llo.bin"},
		{"日本語.txt", "%E6%97%A5%E6%9C%AC%E8%AA%9E.txt"},
		{"semi;colon\"quote", "semi%3Bcolon%22quote"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EncodeDispositionFilename(tc.in), "input %q", tc.in)
	}
}

// The encoded value must decode back to the exact original bytes: clients
// that percent-decode filename*=UTF-8'' values reconstruct the name.
func TestEncodeDispositionFilenameRoundTrip(t *testing.T) {
	names := []string{
		"my file (v2)*.txt",
		"it's a 'test' (really)",
		"stars *** and spaces   here",
		"ünïcödé — dash.txt",
		"日本語ファイル名.tar.gz",
		"mixed 'quo'(par)*star 100%.bin",
	}
	for _, name := range names {
		enc := EncodeDispositionFilename(name)
		// Spaces stay literal for readability; normalize them back to %20
		// before decoding, as a URI-component parser would.
		dec, err := url.PathUnescape(strings.ReplaceAll(enc, " ", "%20"))
		require.NoError(t, err, "input %q -> %q", name, enc)
		assert.Equal(t, name, dec, "round trip of %q", name)
	}
}

func TestEncodeDispositionFilenameHeaderSafe(t *testing.T) {
	enc := EncodeDispositionFilename("evil\"name\r\n;(x)'*")
	for _, c := range []string{"\"", "\r", "\n", ";", "(", ")", "'", "*"} {
		assert.NotContains(t, enc, c)
	}
}
