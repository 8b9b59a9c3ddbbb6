package importer

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelRows reads every row of sheetName from path as strings, header row
// included. Grounded on the kasuganosora-sqlexec excel adapter's
// OpenFile/GetSheetList/GetRows sequence, stripped of its MVCC loading
// step since a Page Store import has no table-versioning concept.
// Importer.Import does not call it: the import pipeline reads delimited
// text sources only.
func ExcelRows(path, sheetName string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("importer: open excel file: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("importer: no sheets in %s", path)
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("importer: read rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("importer: sheet %s is empty", sheetName)
	}

	return rows[0], rows[1:], nil
}
