// Package report summarises and exports the access log.
package report

import (
	"encoding/csv"
	"io"

	"controle-acesso/internal/cpf"
	"controle-acesso/internal/models"
)

const DateLayout = "2006-01-02 15:04:05"

type Stats struct {
	Total    int `json:"total"`
	Admitted int `json:"admitted"`
	Denied   int `json:"denied"`
}

func Summarize(attempts []models.AccessAttempt) Stats {
	s := Stats{Total: len(attempts)}
	for _, a := range attempts {
		if a.Admitted() {
			s.Admitted++
		} else {
			s.Denied++
		}
	}
	return s
}

var csvHeader = []string{"Name", "CPF", "Date", "Status", "Reason"}

// WriteCSV writes one row per attempt in the given order.
func WriteCSV(w io.Writer, attempts []models.AccessAttempt) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, a := range attempts {
		reason := ""
		if a.DenyReason != nil {
			reason = *a.DenyReason
		}
		row := []string{
			a.SubmittedName,
			cpf.Format(a.SubmittedID),
			a.Timestamp.Format(DateLayout),
			a.Verdict,
			reason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
