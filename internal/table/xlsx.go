package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet is one named worksheet of a workbook.
type Sheet struct {
	Name  string
	Table *Table
}

// WriteXLSX saves sheets to a workbook at path, one worksheet per table with
// the header in row 1.
func WriteXLSX(path string, sheets ...Sheet) (err error) {
	if len(sheets) == 0 {
		return fmt.Errorf("writing workbook: no sheets")
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing workbook: %w", cerr)
		}
	}()

	defaultSheet := f.GetSheetName(0)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				return fmt.Errorf("naming sheet %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.Name, err)
		}
		if err := writeSheet(f, s); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s Sheet) error {
	if err := setRow(f, s.Name, 1, s.Table.Header); err != nil {
		return err
	}
	for i, row := range s.Table.Rows {
		if err := setRow(f, s.Name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, rowNum, err)
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}

// ReadXLSXSheet reads one worksheet back as a table.
func ReadXLSXSheet(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("reading sheet %s: empty", sheet)
	}

	t := New(rows[0]...)
	for _, row := range rows[1:] {
		t.Append(row...)
	}
	return t, nil
}
