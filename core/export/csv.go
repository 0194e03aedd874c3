package export

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

// CSV exports spreadsheets.
type CSV struct{}

func (CSV) ContentType() string { return "text/csv; charset=utf-8" }
func (CSV) Extension() string   { return "csv" }

func (CSV) Export(w io.Writer, table Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	row := make([]string, len(table.Columns))
	for _, r := range table.Rows {
		for i := range row {
			row[i] = ""
			if i < len(r) {
				row[i] = r[i]
			}
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing csv")
}
