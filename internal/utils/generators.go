package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// ticketAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const ticketAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateTicketCode returns prefix followed by n random characters, upper-cased.
func GenerateTicketCode(prefix string, n int) (string, error) {
	var b strings.Builder
	b.WriteString(strings.ToUpper(strings.TrimSpace(prefix)))

	max := big.NewInt(int64(len(ticketAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate ticket code: %w", err)
		}
		b.WriteByte(ticketAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// GenerateTicketCodes returns count distinct codes.
func GenerateTicketCodes(prefix string, n, count int) ([]string, error) {
	seen := make(map[string]struct{}, count)
	codes := make([]string, 0, count)
	for len(codes) < count {
		code, err := GenerateTicketCode(prefix, n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}
