// Package export renders completed journeys as CSV or Excel.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"postcode-tracker/internal/domain"
)

const (
	SheetName  = "Journey History"
	timeLayout = "2006-01-02 15:04:05"
)

var Columns = []string{"ID", "Start Postcode", "End Postcode", "Start Time", "End Time", "Distance (miles)"}

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv, xlsx or excel, case-insensitively. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", domain.ErrValidation, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) Filename(at time.Time) string {
	return fmt.Sprintf("journeys_%s.%s", at.UTC().Format("20060102_150405"), f)
}

// Write renders journeys in format f to w.
func Write(w io.Writer, f Format, journeys []*domain.Journey) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, journeys)
	case FormatCSV:
		return WriteCSV(w, journeys)
	default:
		return fmt.Errorf("%w: unsupported export format %q", domain.ErrValidation, f)
	}
}

type row struct {
	id         int64
	start, end string
	startTime  string
	endTime    string
	miles      float64
}

func toRow(j *domain.Journey) row {
	r := row{
		id:        j.ID,
		start:     domain.FormatPostcode(j.StartPostcode),
		end:       domain.FormatPostcode(j.EndPostcode),
		startTime: j.StartTime.UTC().Format(timeLayout),
	}
	if j.EndTime != nil {
		r.endTime = j.EndTime.UTC().Format(timeLayout)
	}
	if j.DistanceMiles != nil {
		r.miles = *j.DistanceMiles
	}
	return r
}
