package sales

import (
	"math"
	"testing"
	"time"
)

func at(day, hour int) time.Time { return time.Date(2025, 5, day, hour, 0, 0, 0, time.UTC) }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestProjectExample(t *testing.T) {
	f := Forecast{AvgDailyQty: 3, Trend: TrendIncreasing, SalesFrequency: 0.5}
	if got := f.Project(7); !near(got, 25.2) {
		t.Fatalf("Project(7) = %v, want 25.2", got)
	}

	sporadic := Forecast{AvgDailyQty: 10, Trend: TrendDecreasing, SalesFrequency: 0.1}
	if got := sporadic.Project(7); !near(got, 10*7*0.8*0.2) {
		t.Fatalf("sporadic Project(7) = %v", got)
	}

	if got := (Forecast{AvgDailyQty: -1, SalesFrequency: 1}).Project(7); got != 0 {
		t.Fatalf("negative projection must clamp to 0, got %v", got)
	}
}

func TestAnalyzeDailyStats(t *testing.T) {
	txs := []Transaction{
		{ProductName: "Milk", SoldAt: at(1, 9), Quantity: 2, LineAmount: 4},
		{ProductName: "Milk", SoldAt: at(1, 15), Quantity: 4, LineAmount: 8},
		{ProductName: "Milk", SoldAt: at(2, 10), Quantity: 3, LineAmount: 6, Barcode: "955"},
		{ProductName: "Milk", SoldAt: at(2, 11), Quantity: -1, LineAmount: -2},
	}
	got := Analyze(txs, Options{})
	f, ok := got["Milk"]
	if !ok {
		t.Fatal("Milk forecast missing")
	}
	if !near(f.AvgDailyQty, 4.5) {
		t.Errorf("avg daily = %v, want 4.5", f.AvgDailyQty)
	}
	if f.MaxDailyQty != 6 || f.TotalQty != 9 {
		t.Errorf("max/total = %v/%v, want 6/9", f.MaxDailyQty, f.TotalQty)
	}
	if !near(f.SalesFrequency, 2.0/90) {
		t.Errorf("frequency = %v", f.SalesFrequency)
	}
	if !near(f.Volatility, math.Sqrt(4.5)) {
		t.Errorf("volatility = %v, want sample std %v", f.Volatility, math.Sqrt(4.5))
	}
	if f.Trend != TrendStable {
		t.Errorf("trend = %s, want stable with 2 observations", f.Trend)
	}
	if f.Barcode != "955" {
		t.Errorf("barcode = %q", f.Barcode)
	}
	// средняя цена 2.00 за штуку
	if !near(f.WeeklyValue, math.Round(f.WeeklyQty*2*100)/100) {
		t.Errorf("weekly value = %v for weekly qty %v", f.WeeklyValue, f.WeeklyQty)
	}
}

func TestAnalyzeWindowEndsAtLatestTransaction(t *testing.T) {
	latest := at(30, 12)
	txs := []Transaction{
		{ProductName: "Bread", SoldAt: latest, Quantity: 1},
		{ProductName: "Bread", SoldAt: latest.AddDate(0, 0, -90), Quantity: 1},
		{ProductName: "Old", SoldAt: latest.AddDate(0, 0, -91), Quantity: 50},
	}
	got := Analyze(txs, Options{WindowDays: 90})
	if _, ok := got["Old"]; ok {
		t.Error("sales before the window must be ignored")
	}
	if got["Bread"].TotalQty != 2 {
		t.Errorf("window start must be inclusive, total = %v", got["Bread"].TotalQty)
	}
}

func TestAnalyzeGroupsByLocalDay(t *testing.T) {
	txs := []Transaction{
		{ProductName: "Eggs", SoldAt: at(1, 20), Quantity: 1},
		{ProductName: "Eggs", SoldAt: at(2, 2), Quantity: 1},
	}
	sgt := time.FixedZone("SGT", 8*3600)
	if got := Analyze(txs, Options{Location: sgt})["Eggs"]; got.AvgDailyQty != 2 {
		t.Errorf("SGT avg = %v, want 2 (both sales on one local day)", got.AvgDailyQty)
	}
	if got := Analyze(txs, Options{})["Eggs"]; got.AvgDailyQty != 1 {
		t.Errorf("UTC avg = %v, want 1", got.AvgDailyQty)
	}
}

func TestTrend(t *testing.T) {
	series := func(n int, f func(i int) float64) []Transaction {
		out := make([]Transaction, n)
		for i := range out {
			out[i] = Transaction{ProductName: "P", SoldAt: at(i+1, 12), Quantity: f(i)}
		}
		return out
	}
	cases := []struct {
		name string
		txs  []Transaction
		want Trend
	}{
		{"increasing", series(12, func(i int) float64 { return float64(i + 1) }), TrendIncreasing},
		{"decreasing", series(12, func(i int) float64 { return float64(20 - i) }), TrendDecreasing},
		{"flat", series(12, func(int) float64 { return 5 }), TrendStable},
		{"too few points", series(9, func(i int) float64 { return float64(i * 10) }), TrendStable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Analyze(c.txs, Options{})["P"].Trend; got != c.want {
				t.Errorf("trend = %s, want %s", got, c.want)
			}
		})
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if got := Analyze(nil, Options{}); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestRanked(t *testing.T) {
	got := Ranked(map[string]Forecast{
		"b": {ProductName: "b", TotalQty: 5},
		"a": {ProductName: "a", TotalQty: 5},
		"c": {ProductName: "c", TotalQty: 9},
	})
	if got[0].ProductName != "c" || got[1].ProductName != "a" || got[2].ProductName != "b" {
		t.Fatalf("order = %v", got)
	}
}
