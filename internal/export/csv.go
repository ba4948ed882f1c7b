// Package export renders batch results as CSV or XLSX for download.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/sells-group/company-lookup/internal/model"
)

// ErrNoResults is returned when there is nothing to export.
var ErrNoResults = eris.New("エクスポートする結果がありません")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader is the fixed column order of every export format.
var csvHeader = []string{"会社名", "郵便番号", "都道府県", "市区町村", "番地", "代表者役職", "代表者名"}

// Options controls CSV rendering.
type Options struct {
	// BOM prefixes UTF-8 output with a byte-order mark so Excel detects
	// the encoding. Ignored when ShiftJIS is set.
	BOM bool
	// ShiftJIS transcodes the output for legacy Japanese spreadsheet
	// tooling that does not read UTF-8.
	ShiftJIS bool
}

// WriteCSV renders results to w, one row per record in batch order.
func WriteCSV(w io.Writer, results []model.CompanyRecord, opts Options) error {
	if len(results) == 0 {
		return ErrNoResults
	}

	out := w
	if opts.ShiftJIS {
		sjis := transform.NewWriter(w, japanese.ShiftJIS.NewEncoder())
		defer sjis.Close()
		out = sjis
	} else if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return eris.Wrap(err, "export: write BOM")
		}
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(csvHeader); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, rec := range results {
		if err := cw.Write(recordRow(rec)); err != nil {
			return eris.Wrapf(err, "export: write row for %q", rec.CompanyName)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// CSVBytes renders results to a byte slice.
func CSVBytes(results []model.CompanyRecord, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, results, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename names a download after the day it was produced.
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("company_info_%s.%s", now.Format("2006-01-02"), format)
}

func recordRow(rec model.CompanyRecord) []string {
	return []string{
		rec.CompanyName,
		rec.PostalCode,
		rec.Prefecture,
		rec.City,
		rec.Address,
		rec.RepresentativeTitle,
		rec.RepresentativeName,
	}
}
