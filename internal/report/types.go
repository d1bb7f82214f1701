package report

import (
	"github.com/forensys/evidence-custody/internal/store/model"
)

type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
)

// Renderer turns assembled report data into one artifact body.
type Renderer interface {
	Render(data *Data) (string, error)
	SupportedFormat() Format
}

// Data carries everything a renderer needs: the job attributes, the
// evidence descriptors, and the ordered custody ledger.
type Data struct {
	Job     *model.Job
	Entries model.CustodyEntryList

	GeneratedDate string
	GeneratedTime string
}
