package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// WriteXLSX writes the leads to a new XLSX workbook at path.
func WriteXLSX(path, sheetName string, leads []model.Lead) error {
	if sheetName == "" {
		sheetName = "Leads"
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", sheetName)
	}

	headerRow := sheet.AddRow()
	for _, col := range Header {
		headerRow.AddCell().Value = col
	}

	for _, lead := range leads {
		row := sheet.AddRow()
		for _, val := range Row(lead) {
			row.AddCell().Value = val
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save xlsx %s", path)
	}
	return nil
}
