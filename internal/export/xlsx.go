package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/example/room-scheduler/internal/application"
)

const sheetName = "Agendamentos"

var xlsxHeaders = []string{
	"ID",
	"Sala ID",
	"Sala",
	"Data",
	"Início",
	"Término",
	"Solicitante",
	"Descrição",
	"Criado em",
}

var xlsxColumnWidths = []float64{38, 12, 24, 12, 8, 8, 24, 40, 14}

// WriteXLSX writes bookings to a single-sheet workbook with a frozen header row.
// "Criado em" holds epoch milliseconds so the sheet reads back losslessly.
func WriteXLSX(w io.Writer, bookings []application.Booking, rooms []application.Room) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E7FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, header := range xlsxHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, xlsxColumnWidths[col]); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	byID := indexRooms(rooms)
	for i, b := range bookings {
		row := i + 2
		values := []any{
			b.ID,
			b.RoomID,
			byID[b.RoomID].Name,
			b.Date,
			b.StartTime,
			b.EndTime,
			b.RequesterName,
			b.Description,
			strconv.FormatInt(b.CreatedAt, 10),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX reads bookings from the first sheet of a workbook written by WriteXLSX.
// Columns are located by header, so reordered sheets are accepted.
func ReadXLSX(r io.Reader) ([]application.Booking, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[header] = i
	}
	for _, required := range []string{"ID", "Sala ID", "Data", "Início", "Término"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: column %q", ErrMissingProperty, required)
		}
	}

	cell := func(row []string, header string) string {
		i, ok := columns[header]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	bookings := make([]application.Booking, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		b := application.Booking{
			ID:            cell(row, "ID"),
			RoomID:        cell(row, "Sala ID"),
			Date:          cell(row, "Data"),
			StartTime:     cell(row, "Início"),
			EndTime:       cell(row, "Término"),
			RequesterName: cell(row, "Solicitante"),
			Description:   cell(row, "Descrição"),
		}
		if raw := cell(row, "Criado em"); raw != "" {
			created, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: created at %q: %w", n+2, raw, err)
			}
			b.CreatedAt = created
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}
