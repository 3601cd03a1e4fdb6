package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"postcode-tracker/internal/domain"
)

func WriteCSV(w io.Writer, journeys []*domain.Journey) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, j := range journeys {
		r := toRow(j)
		rec := []string{
			strconv.FormatInt(r.id, 10),
			r.start,
			r.end,
			r.startTime,
			r.endTime,
			strconv.FormatFloat(r.miles, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.id, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
