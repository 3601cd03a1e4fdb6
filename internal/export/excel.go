package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"postcode-tracker/internal/domain"
)

func WriteXLSX(w io.Writer, journeys []*domain.Journey) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	// stream writer keeps memory flat for long histories
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("new stream writer: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, j := range journeys {
		r := toRow(j)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, []interface{}{
			r.id, r.start, r.end, r.startTime, r.endTime, r.miles,
		}); err != nil {
			return fmt.Errorf("write row %d: %w", r.id, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.Write(w)
}
