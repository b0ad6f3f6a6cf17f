// Package qr renders ticket codes as scannable PNG images.
package qr

import (
	"errors"

	"controle-acesso/internal/models"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

type Generator struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func NewGenerator(size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{Size: size, Level: qrcode.Medium}
}

// TicketPNG encodes the bare ticket code, which is what the gate form expects
// when a scanner types it in.
func (g *Generator) TicketPNG(ticket models.TicketCode) ([]byte, error) {
	if ticket.Code == "" {
		return nil, errors.New("ticket has no code")
	}
	return qrcode.Encode(ticket.Code, g.Level, g.Size)
}
