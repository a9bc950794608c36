package loader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"marketselect/internal/types"
)

// LoadWorkbook reads market records from an Excel analysis workbook. The
// sheet is found by scanning for a header row containing both a City and a
// rent column, since exported workbooks don't use a fixed sheet name.
func LoadWorkbook(path string) ([]types.MarketRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}
		headerIdx := findHeaderRow(rows)
		if headerIdx < 0 {
			continue
		}
		header := make([]string, len(rows[headerIdx]))
		for i, h := range rows[headerIdx] {
			header[i] = normalizeHeader(h)
		}

		var records []types.MarketRecord
		skipped := 0
		for _, row := range rows[headerIdx+1:] {
			raw := make(map[string]string, len(header))
			for j, h := range header {
				if j < len(row) {
					raw[h] = strings.TrimSpace(row[j])
				}
			}
			if raw[colCity] == "" {
				continue // blank/footer rows
			}
			rec, err := buildRecord(raw)
			if err != nil {
				slog.Warn("skipping workbook row", "file", path, "sheet", sheet, "error", err)
				skipped++
				continue
			}
			records = append(records, rec)
		}
		if len(records) > 0 {
			slog.Info("loaded market records from workbook",
				"file", path, "sheet", sheet, "records", len(records), "skipped", skipped)
			return records, nil
		}
	}
	return nil, fmt.Errorf("no sheet with market data found in %s", path)
}

// findHeaderRow locates the first row that looks like the column contract.
func findHeaderRow(rows [][]string) int {
	limit := len(rows)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		hasCity, hasRent := false, false
		for _, cell := range rows[i] {
			switch normalizeHeader(cell) {
			case colCity:
				hasCity = true
			case colGrossRent:
				hasRent = true
			}
		}
		if hasCity && hasRent {
			return i
		}
	}
	return -1
}
