package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

var testColumns = Columns{
	Date:           "Start Date",
	Category:       "P&L Type",
	Margin:         "margin",
	GrowthRate:     "Growth Rate%",
	MostLikelyRate: "Growth Rate most likely",
	FutureDate:     "ds",
	FutureValue:    "yhat",
}

// writeCSV creates a temp CSV table and returns its path.
func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseRecords_CSV(t *testing.T) {
	path := writeCSV(t,
		`Start Date,P&L Type,margin`,
		`2023-01-15,Consulting,100`,
		`2023-02-01,Consulting,"1,150.50"`,
		`2023-02-03,Licensing,(25)`,
		``,
		`not-a-date,Consulting,10`,
		`2023-03-01,,10`,
		`2023-03-01,Consulting,abc`,
	)

	rows, err := ReadRows(path, "")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	res, err := ParseRecords(rows, testColumns)
	if err != nil {
		t.Fatalf("ParseRecords: %v", err)
	}

	if len(res.Rows) != 3 {
		t.Fatalf("Rows = %d, want 3", len(res.Rows))
	}
	if res.ParseErrors != 3 {
		t.Errorf("ParseErrors = %d, want 3", res.ParseErrors)
	}

	want := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	if !res.Rows[0].Date.Equal(want) {
		t.Errorf("Rows[0].Date = %v, want %v", res.Rows[0].Date, want)
	}
	if got := res.Rows[1].Margin.String(); got != "1150.5" {
		t.Errorf("Rows[1].Margin = %s, want 1150.5", got)
	}
	if got := res.Rows[2].Margin.String(); got != "-25" {
		t.Errorf("Rows[2].Margin = %s, want -25", got)
	}
}

func TestParseRecords_MissingColumn(t *testing.T) {
	rows := [][]string{{"Start Date", "Category", "margin"}}
	_, err := ParseRecords(rows, testColumns)
	if err == nil || !strings.Contains(err.Error(), "P&L Type") {
		t.Fatalf("err = %v, want missing P&L Type column", err)
	}
}

func TestParseRecords_HeaderIsCaseInsensitive(t *testing.T) {
	rows := [][]string{
		{"\ufeffstart date ", "p&l type", "MARGIN"},
		{"2022-06-30", "Training", "42"},
	}
	res, err := ParseRecords(rows, testColumns)
	if err != nil {
		t.Fatalf("ParseRecords: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Category != "Training" {
		t.Fatalf("Rows = %+v, want one Training row", res.Rows)
	}
}

func TestParseGrowthRates_FractionScalesDeclaredOnly(t *testing.T) {
	rows := [][]string{
		{"P&L Type", "Growth Rate%", "Growth Rate most likely"},
		{"Consulting", "0.049", "13.86"},
		{"Licensing", "bad", "1"},
	}

	res, err := ParseGrowthRates(rows, testColumns, true)
	if err != nil {
		t.Fatalf("ParseGrowthRates: %v", err)
	}
	if len(res.Rows) != 1 || res.ParseErrors != 1 {
		t.Fatalf("Rows = %d ParseErrors = %d, want 1 and 1", len(res.Rows), res.ParseErrors)
	}
	g := res.Rows[0]
	if diff := g.DeclaredRatePercent - 4.9; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("DeclaredRatePercent = %v, want 4.9", g.DeclaredRatePercent)
	}
	if diff := g.MostLikelyRatePercent - 13.86; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("MostLikelyRatePercent = %v, want 13.86", g.MostLikelyRatePercent)
	}
}

func TestParseGrowthRates_MostLikelyNeverScaled(t *testing.T) {
	rows := [][]string{
		{"P&L Type", "Growth Rate%", "Growth Rate most likely"},
		{"Licensing", "0.02", "1.5"},
	}
	for _, asFraction := range []bool{false, true} {
		res, err := ParseGrowthRates(rows, testColumns, asFraction)
		if err != nil {
			t.Fatalf("ParseGrowthRates(asFraction=%v): %v", asFraction, err)
		}
		if got := res.Rows[0].MostLikelyRatePercent; got != 1.5 {
			t.Errorf("asFraction=%v: MostLikelyRatePercent = %v, want 1.5", asFraction, got)
		}
	}
}

func TestParseGrowthRates_PercentSuffix(t *testing.T) {
	rows := [][]string{
		{"P&L Type", "Growth Rate%", "Growth Rate most likely"},
		{"Consulting", "4.9%", "1.06"},
	}
	res, err := ParseGrowthRates(rows, testColumns, false)
	if err != nil {
		t.Fatalf("ParseGrowthRates: %v", err)
	}
	if res.Rows[0].DeclaredRatePercent != 4.9 {
		t.Errorf("DeclaredRatePercent = %v, want 4.9", res.Rows[0].DeclaredRatePercent)
	}
}

func TestReadRows_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"ds", "P&L Type", "yhat"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "Consulting", 1234.5})
	_ = f.SetSheetRow(sheet, "A3", &[]any{"2024-04-01", "Licensing", 10})
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = f.Close()

	rows, err := ReadRows(path, "")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	res, err := ParseFutureRows(rows, testColumns)
	if err != nil {
		t.Fatalf("ParseFutureRows: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2 (parse errors %d)", len(res.Rows), res.ParseErrors)
	}

	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !res.Rows[0].Date.Equal(want) {
		t.Errorf("Rows[0].Date = %v, want %v", res.Rows[0].Date, want)
	}
	if res.Rows[0].Value != 1234.5 {
		t.Errorf("Rows[0].Value = %v, want 1234.5", res.Rows[0].Value)
	}
}

func TestReadRows_UnsupportedFormat(t *testing.T) {
	_, err := ReadRows("table.json", "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2023-01-02",
		"2023-01-02 13:45:00",
		"2023-01-02T00:00:00Z",
		"2023/01/02",
		"01/02/2023",
		"1/2/2023",
		"20230102",
		"44928",
	} {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"a.csv":     true,
		"b.XLSX":    true,
		"c.xlsm":    true,
		"d.json":    false,
		"noext":     false,
		"e.csv.bak": false,
	} {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}
