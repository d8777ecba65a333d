package httpserver

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	writeFile(t, path, buf.Bytes())
}

func TestThumbScalesLongerEdge(t *testing.T) {
	srv, root := newTestServer(t, nil)
	writeTestPNG(t, filepath.Join(root, "pic.png"), 800, 400)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/thumb?path=pic.png")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/jpeg", res.Header.Get("Content-Type"))

	img, err := jpeg.Decode(res.Body)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())

	// The thumbnail is cached on disk for the next request.
	entries, err := os.ReadDir(filepath.Join(root, ".fileroom", "thumbs"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestThumbSmallImageKeepsSize(t *testing.T) {
	srv, root := newTestServer(t, nil)
	writeTestPNG(t, filepath.Join(root, "icon.png"), 32, 20)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/thumb?path=icon.png")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	img, err := jpeg.Decode(res.Body)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestThumbRejectsTraversal(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/thumb?path=../outside.png")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestThumbNonImageIs404(t *testing.T) {
	srv, root := newTestServer(t, nil)
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("text"))

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/thumb?path=notes.txt")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
