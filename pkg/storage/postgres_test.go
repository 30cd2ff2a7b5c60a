package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a"}, splitList("a"))
	assert.Equal(t, []string{"a", "b", "c"}, splitList("a,b,c"))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "clean", sanitizeText("clean"))
	assert.Equal(t, "nonul", sanitizeText("no\x00nul"))

	// Invalid UTF-8 bytes are dropped entirely.
	dirty := "ok" + string([]byte{0xff, 0xfe}) + "ok"
	assert.Equal(t, "okok", sanitizeText(dirty))
}
