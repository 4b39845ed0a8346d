package source

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/marginfc/internal/model"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"20060102",
}

// Excel serial day numbers for 1900-01-01 and 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// ParseRecords converts historical table rows into records.
// The first row must be the header.
func ParseRecords(rows [][]string, cols Columns) (ParseResult[model.Record], error) {
	var res ParseResult[model.Record]
	if len(rows) == 0 {
		return res, nil
	}

	idx, err := headerIndex(rows[0], cols.Date, cols.Category, cols.Margin)
	if err != nil {
		return res, err
	}

	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		date, err := ParseDate(cell(row, idx[0]))
		if err != nil {
			res.ParseErrors++
			continue
		}
		category := strings.TrimSpace(cell(row, idx[1]))
		if category == "" {
			res.ParseErrors++
			continue
		}
		margin, err := ParseAmount(cell(row, idx[2]))
		if err != nil {
			res.ParseErrors++
			continue
		}
		res.Rows = append(res.Rows, model.Record{Date: date, Category: category, Margin: margin})
	}
	return res, nil
}

// ParseGrowthRates converts growth-rate table rows into entries.
// When asFraction is set, the declared rate column is stored as a fraction
// (0.049) and is scaled to percent (4.9). The most-likely column is always
// read as a percentage.
func ParseGrowthRates(rows [][]string, cols Columns, asFraction bool) (ParseResult[model.GrowthRateEntry], error) {
	var res ParseResult[model.GrowthRateEntry]
	if len(rows) == 0 {
		return res, nil
	}

	idx, err := headerIndex(rows[0], cols.Category, cols.GrowthRate, cols.MostLikelyRate)
	if err != nil {
		return res, err
	}

	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		category := strings.TrimSpace(cell(row, idx[0]))
		declared, err1 := parseRate(cell(row, idx[1]))
		likely, err2 := parseRate(cell(row, idx[2]))
		if category == "" || err1 != nil || err2 != nil {
			res.ParseErrors++
			continue
		}
		if asFraction {
			declared *= 100
		}
		res.Rows = append(res.Rows, model.GrowthRateEntry{
			Category:              category,
			DeclaredRatePercent:   declared,
			MostLikelyRatePercent: likely,
		})
	}
	return res, nil
}

// ParseFutureRows converts category future-forecast table rows.
func ParseFutureRows(rows [][]string, cols Columns) (ParseResult[model.FutureRow], error) {
	var res ParseResult[model.FutureRow]
	if len(rows) == 0 {
		return res, nil
	}

	idx, err := headerIndex(rows[0], cols.FutureDate, cols.Category, cols.FutureValue)
	if err != nil {
		return res, err
	}

	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		date, err := ParseDate(cell(row, idx[0]))
		if err != nil {
			res.ParseErrors++
			continue
		}
		category := strings.TrimSpace(cell(row, idx[1]))
		value, err := ParseAmount(cell(row, idx[2]))
		if category == "" || err != nil {
			res.ParseErrors++
			continue
		}
		res.Rows = append(res.Rows, model.FutureRow{Date: date, Category: category, Value: value.InexactFloat64()})
	}
	return res, nil
}

// ParseDate parses a day-granularity date in any of the accepted layouts,
// or an Excel serial day number.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("excel date %q: %w", s, err)
		}
		return truncateDay(t), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseAmount parses a signed decimal, tolerating thousands separators,
// a leading currency sign, and accounting-style parentheses for negatives.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", " ", "").Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

func parseRate(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	d, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// headerIndex locates each wanted column in the header row, ignoring case
// and surrounding whitespace.
func headerIndex(header []string, wanted ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	idx := make([]int, len(wanted))
	var missing []string
	for i, w := range wanted {
		p, ok := pos[strings.ToLower(strings.TrimSpace(w))]
		if !ok {
			missing = append(missing, w)
			continue
		}
		idx[i] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %q in header %q", missing, header)
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
