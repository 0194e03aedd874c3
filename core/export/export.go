// Package export renders tables of records as downloadable files.
package export

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Table is a filtered table of records.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Exporter renders a Table in one file format.
type Exporter interface {
	ContentType() string
	Extension() string
	Export(w io.Writer, table Table) error
}

// ByFormat returns the exporter of format ("csv" or "pdf").
func ByFormat(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "csv":
		return CSV{}, nil
	case "pdf":
		return PDF{}, nil
	}
	return nil, errors.Wrap(ErrUnknownFormat, format)
}
