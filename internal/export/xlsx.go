package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/rrf-map/internal/model"
)

// SheetName is the worksheet holding the licence rows.
const SheetName = "Licences"

// BuildXLSX lays records out one per row under a header row.
func BuildXLSX(records []model.Record) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range Columns {
		header.AddCell().SetString(name)
	}

	for i := range records {
		row := sheet.AddRow()
		for _, v := range cells(&records[i]) {
			cell := row.AddCell()
			switch val := v.(type) {
			case nil:
			case float64:
				cell.SetFloat(val)
			case string:
				cell.SetString(val)
			}
		}
	}
	return f, nil
}

// WriteXLSX saves records as a workbook at path.
func WriteXLSX(path string, records []model.Record) error {
	f, err := BuildXLSX(records)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// EncodeXLSX writes the workbook to w.
func EncodeXLSX(w io.Writer, records []model.Record) error {
	f, err := BuildXLSX(records)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "export: write xlsx")
}
