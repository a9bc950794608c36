package loader

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"marketselect/internal/types"
)

// Column contract for delimited market-summary files. Header names are
// matched case-insensitively with spaces treated as underscores, so
// "Vacancy Rate" and "VACANCY_RATE" both resolve to the vacancy column.
const (
	colCity        = "city"
	colPeriod      = "period"
	colGrossRent   = "gross_rent"
	colVacancy     = "vacancy_rate"
	colOpEx        = "operating_expenses"
	colGrossIncome = "gross_income"
	colLatitude    = "latitude"
	colLongitude   = "longitude"
)

// LoadFile reads market records from path, choosing the parser by extension:
// .xlsx workbooks go through excelize, everything else is treated as a
// delimited text file.
func LoadFile(path string) ([]types.MarketRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadWorkbook(path)
	}
	return LoadDelimited(path)
}

// LoadDelimited reads a header-plus-rows delimited file. The delimiter is
// detected from the header line: '|' when present, otherwise ','. Lines are
// parsed on a worker pool; rows with unparseable numerics are skipped with a
// warning rather than failing the load.
func LoadDelimited(path string) ([]types.MarketRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024) // allow very long lines

	if !scanner.Scan() {
		return nil, fmt.Errorf("file %s is empty", path)
	}
	headerLine := scanner.Text()
	delim := ","
	if strings.Contains(headerLine, "|") {
		delim = "|"
	}
	header := splitColumns(headerLine, delim)

	// Pipeline: producer (I/O) -> workers (parsing)
	linesCh := make(chan string, 4096)

	var mu sync.Mutex
	var records []types.MarketRecord
	skipped := 0

	workers := runtime.NumCPU()
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for line := range linesCh {
				cols := strings.Split(line, delim)
				raw := make(map[string]string, len(header))
				for j, h := range header {
					if j < len(cols) {
						raw[h] = strings.TrimSpace(cols[j])
					}
				}
				rec, err := buildRecord(raw)
				if err != nil {
					slog.Warn("skipping row", "file", path, "error", err)
					mu.Lock()
					skipped++
					mu.Unlock()
					continue
				}
				mu.Lock()
				records = append(records, rec)
				mu.Unlock()
			}
		}()
	}

	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		linesCh <- scanner.Text()
	}
	close(linesCh)
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	slog.Info("loaded market records", "file", path, "records", len(records), "skipped", skipped)
	return records, nil
}

// splitColumns normalizes header names to the column contract.
func splitColumns(line, delim string) []string {
	parts := strings.Split(line, delim)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = normalizeHeader(p)
	}
	return out
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	return h
}

// buildRecord converts one raw row into a MarketRecord.
func buildRecord(raw map[string]string) (types.MarketRecord, error) {
	city := strings.TrimSpace(raw[colCity])
	if city == "" {
		return types.MarketRecord{}, fmt.Errorf("row has no city")
	}

	period, err := strconv.Atoi(strings.TrimSpace(raw[colPeriod]))
	if err != nil {
		return types.MarketRecord{}, fmt.Errorf("city %s: bad period %q", city, raw[colPeriod])
	}

	rent, err := parseAmount(raw[colGrossRent])
	if err != nil {
		return types.MarketRecord{}, fmt.Errorf("city %s period %d: bad gross rent %q", city, period, raw[colGrossRent])
	}
	vacancy, err := parseRate(raw[colVacancy])
	if err != nil {
		return types.MarketRecord{}, fmt.Errorf("city %s period %d: bad vacancy %q", city, period, raw[colVacancy])
	}
	opex, err := parseAmount(raw[colOpEx])
	if err != nil {
		return types.MarketRecord{}, fmt.Errorf("city %s period %d: bad operating expenses %q", city, period, raw[colOpEx])
	}

	income := rent
	if v, ok := raw[colGrossIncome]; ok && strings.TrimSpace(v) != "" {
		income, err = parseAmount(v)
		if err != nil {
			return types.MarketRecord{}, fmt.Errorf("city %s period %d: bad gross income %q", city, period, v)
		}
	}

	rec := types.MarketRecord{
		City:              city,
		Period:            period,
		GrossRent:         rent,
		VacancyRate:       vacancy,
		OperatingExpenses: opex,
		GrossIncome:       income,
	}
	if lat, ok := raw[colLatitude]; ok && lat != "" {
		if v, err := strconv.ParseFloat(lat, 64); err == nil {
			rec.Latitude = v
		}
	}
	if lon, ok := raw[colLongitude]; ok && lon != "" {
		if v, err := strconv.ParseFloat(lon, 64); err == nil {
			rec.Longitude = v
		}
	}
	return rec, nil
}

// parseAmount parses a dollar-ish amount, tolerating "$" and "," separators.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	return strconv.ParseFloat(s, 64)
}

// parseRate parses a rate given either as a fraction (0.06) or a percentage
// (6 or 6%). Values above 1 are assumed to be percentages.
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, fmt.Errorf("empty rate")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if percent || v > 1 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("rate %v out of range", v)
	}
	return v, nil
}
