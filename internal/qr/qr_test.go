package qr

import (
	"bytes"
	"image/png"
	"testing"

	"controle-acesso/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketPNG(t *testing.T) {
	g := NewGenerator(0)
	assert.Equal(t, DefaultSize, g.Size)

	data, err := g.TicketPNG(models.TicketCode{Code: "ING123FESTIVAL"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestTicketPNG_EmptyCode(t *testing.T) {
	_, err := NewGenerator(128).TicketPNG(models.TicketCode{})
	assert.Error(t, err)
}
