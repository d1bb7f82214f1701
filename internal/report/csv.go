package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"
)

// CSVRenderer exports the custody ledger as a flat table, one row per
// event, for spreadsheet review.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

func (r *CSVRenderer) SupportedFormat() Format {
	return FormatCSV
}

func (r *CSVRenderer) Render(data *Data) (string, error) {
	var rows [][]string

	rows = append(rows, []string{"EVIDENCE CUSTODY REPORT"})
	rows = append(rows, []string{fmt.Sprintf("Generated: %s at %s", data.GeneratedDate, data.GeneratedTime)})
	rows = append(rows, []string{""})

	rows = append(rows, []string{"Job ID", data.Job.ID.String()})
	rows = append(rows, []string{"Status", string(data.Job.Status)})
	rows = append(rows, []string{"Investigator", data.Job.InvestigatorID})
	if data.Job.SHA256Hash != nil {
		rows = append(rows, []string{"SHA-256", *data.Job.SHA256Hash})
	}
	if data.Job.StorageLocation != nil {
		rows = append(rows, []string{"Storage Location", *data.Job.StorageLocation})
	}
	rows = append(rows, []string{""})

	rows = append(rows, []string{"Timestamp", "Event", "Investigator", "Details", "Hash Verification"})
	for _, entry := range data.Entries {
		details := ""
		if m := entry.DetailsMap(); len(m) > 0 {
			raw, err := json.Marshal(m)
			if err != nil {
				return "", fmt.Errorf("encoding entry details: %w", err)
			}
			details = string(raw)
		}
		hashVerification := ""
		if entry.HashVerification != nil {
			hashVerification = *entry.HashVerification
		}
		rows = append(rows, []string{
			entry.Timestamp.UTC().Format(time.RFC3339),
			entry.Event,
			entry.InvestigatorID,
			details,
			hashVerification,
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("writing csv: %w", err)
	}
	w.Flush()
	return buf.String(), w.Error()
}
