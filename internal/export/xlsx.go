package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/company-lookup/internal/model"
)

const sheetName = "会社情報"

// WriteXLSX renders results as a single-sheet workbook with the same
// column order as the CSV export.
func WriteXLSX(w io.Writer, results []model.CompanyRecord) error {
	if len(results) == 0 {
		return ErrNoResults
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, label := range csvHeader {
		header.AddCell().SetString(label)
	}

	for _, rec := range results {
		row := sheet.AddRow()
		for _, v := range recordRow(rec) {
			row.AddCell().SetString(v)
		}
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}
