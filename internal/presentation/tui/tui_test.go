package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("**Routing** settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Routing")
}
