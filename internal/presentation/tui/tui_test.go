package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/wayfinder/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.Contains(t, buf.String(), "____")
}

func TestNewRenderer(t *testing.T) {
	render := tui.NewRenderer()
	out, err := render("# State\n\nfinished")
	require.NoError(t, err)
	assert.Contains(t, out, "finished")
}
