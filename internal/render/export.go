package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pondside/parley/internal/db"
)

// CSV writes the result's header and rows in CSV form, for /export.
func CSV(res *db.Result, w io.Writer) error {
	if len(res.Columns) == 0 {
		return fmt.Errorf("result has no rows to export")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	for _, row := range res.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TSV renders the result tab-separated, the form spreadsheets paste
// cleanly. Used by /copy.
func TSV(res *db.Result) string {
	var b strings.Builder
	b.WriteString(strings.Join(res.Columns, "\t"))
	b.WriteString("\n")
	for _, row := range res.Rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}
