package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/money"
)

// Header is the column set of the entries export. Downstream spreadsheets
// depend on the names and their order.
var Header = []string{"Date", "Description", "Duration(min)", "Earnings", "Status"}

const dateLayout = "2006-01-02"

// WriteCSV writes entries as CSV in the order given.
func WriteCSV(w io.Writer, entries []timeentry.TimeEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			e.StartTime.Format(dateLayout),
			e.Description,
			money.Plain(e.DurationMinutes),
			money.Plain(e.Earnings),
			string(e.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing entry %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
