package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"
)

type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{tmpl: template.Must(template.New("custody_report").Parse(reportTemplate))}
}

func (r *HTMLRenderer) SupportedFormat() Format {
	return FormatHTML
}

type htmlRow struct {
	Timestamp        string
	Event            string
	InvestigatorID   string
	Details          string
	HashVerification string
}

type htmlTemplateData struct {
	GeneratedDate string
	GeneratedTime string

	JobID          string
	Status         string
	Source         string
	InvestigatorID string
	CaseNumber     string
	Notes          string
	OriginalURL    string
	CreatedAt      string
	CompletedAt    string

	FileName        string
	FileSize        string
	MimeType        string
	SHA256Hash      string
	StorageLocation string

	Entries []htmlRow
}

func (r *HTMLRenderer) Render(data *Data) (string, error) {
	job := data.Job

	td := htmlTemplateData{
		GeneratedDate:   data.GeneratedDate,
		GeneratedTime:   data.GeneratedTime,
		JobID:           job.ID.String(),
		Status:          string(job.Status),
		Source:          string(job.Source),
		InvestigatorID:  job.InvestigatorID,
		CreatedAt:       job.CreatedAt.UTC().Format(time.RFC3339),
		CaseNumber:      deref(job.CaseNumber),
		Notes:           deref(job.Notes),
		OriginalURL:     deref(job.OriginalURL),
		FileName:        deref(job.Filename),
		MimeType:        deref(job.MimeType),
		SHA256Hash:      deref(job.SHA256Hash),
		StorageLocation: deref(job.StorageLocation),
	}
	if job.FileSize != nil {
		td.FileSize = fmt.Sprintf("%d bytes", *job.FileSize)
	}
	if job.CompletedAt != nil {
		td.CompletedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}

	for _, entry := range data.Entries {
		row := htmlRow{
			Timestamp:        entry.Timestamp.UTC().Format(time.RFC3339),
			Event:            entry.Event,
			InvestigatorID:   entry.InvestigatorID,
			HashVerification: deref(entry.HashVerification),
		}
		if details := entry.DetailsMap(); len(details) > 0 {
			raw, err := json.Marshal(details)
			if err != nil {
				return "", fmt.Errorf("encoding entry details: %w", err)
			}
			row.Details = string(raw)
		}
		td.Entries = append(td.Entries, row)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, td); err != nil {
		return "", fmt.Errorf("rendering custody report: %w", err)
	}
	return buf.String(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Evidence Custody Report - {{.JobID}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; margin: 2rem; color: #1a1a1a; }
h1 { border-bottom: 2px solid #8b0000; padding-bottom: .5rem; }
h2 { margin-top: 2rem; color: #333; }
table { border-collapse: collapse; width: 100%; margin-top: .5rem; }
th, td { border: 1px solid #ccc; padding: .4rem .6rem; text-align: left; font-size: .9rem; }
th { background: #f3f3f3; }
.mono { font-family: monospace; word-break: break-all; }
.footer { margin-top: 3rem; font-size: .8rem; color: #666; }
</style>
</head>
<body>
<h1>Evidence Custody Report</h1>
<p>Generated {{.GeneratedDate}} at {{.GeneratedTime}}</p>

<h2>Job</h2>
<table>
<tr><th>Job ID</th><td class="mono">{{.JobID}}</td></tr>
<tr><th>Status</th><td>{{.Status}}</td></tr>
<tr><th>Source</th><td>{{.Source}}</td></tr>
{{if .OriginalURL}}<tr><th>Original URL</th><td class="mono">{{.OriginalURL}}</td></tr>{{end}}
<tr><th>Investigator</th><td>{{.InvestigatorID}}</td></tr>
{{if .CaseNumber}}<tr><th>Case Number</th><td>{{.CaseNumber}}</td></tr>{{end}}
{{if .Notes}}<tr><th>Notes</th><td>{{.Notes}}</td></tr>{{end}}
<tr><th>Created</th><td>{{.CreatedAt}}</td></tr>
{{if .CompletedAt}}<tr><th>Completed</th><td>{{.CompletedAt}}</td></tr>{{end}}
</table>

<h2>Evidence</h2>
<table>
{{if .FileName}}<tr><th>File Name</th><td>{{.FileName}}</td></tr>{{end}}
{{if .FileSize}}<tr><th>File Size</th><td>{{.FileSize}}</td></tr>{{end}}
{{if .MimeType}}<tr><th>MIME Type</th><td>{{.MimeType}}</td></tr>{{end}}
{{if .SHA256Hash}}<tr><th>SHA-256</th><td class="mono">{{.SHA256Hash}}</td></tr>{{end}}
{{if .StorageLocation}}<tr><th>Storage Location</th><td class="mono">{{.StorageLocation}}</td></tr>{{end}}
</table>

<h2>Chain of Custody</h2>
<table>
<tr><th>Timestamp</th><th>Event</th><th>Investigator</th><th>Details</th><th>Hash</th></tr>
{{range .Entries}}
<tr>
<td>{{.Timestamp}}</td>
<td>{{.Event}}</td>
<td>{{.InvestigatorID}}</td>
<td class="mono">{{.Details}}</td>
<td class="mono">{{.HashVerification}}</td>
</tr>
{{end}}
</table>

<div class="footer">This report was generated automatically. The chain-of-custody
ledger above is append-only; every recorded event is immutable.</div>
</body>
</html>
`
