package httpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileURL(t *testing.T) {
	assert.Equal(t, "/files", fileURL(""))
	assert.Equal(t, "/files/a.txt", fileURL("a.txt"))
	assert.Equal(t, "/files/a%20b/c%23d.txt", fileURL("a b/c#d.txt"))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "0 B", humanSize(0))
	assert.Equal(t, "500 B", humanSize(500))
	assert.Equal(t, "2.0 KiB", humanSize(2048))
	assert.Equal(t, "1.5 MiB", humanSize(3*512*1024))
}
