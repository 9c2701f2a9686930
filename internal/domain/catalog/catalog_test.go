package catalog

import (
	"math"
	"testing"
	"time"
)

func day(d int) time.Time { return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC) }

func TestNormalize(t *testing.T) {
	if got := Normalize("  Coke   320ML \t"); got != "coke 320ml" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestScorers(t *testing.T) {
	cases := []struct {
		name  string
		score Scorer
		a, b  string
		want  float64
	}{
		{"overlap partial", WordOverlap, "JW Black 700ml", "jw black 200ml", 2.0 / 3.0},
		{"overlap full", WordOverlap, "tiger beer", "TIGER BEER 330ML", 1},
		{"overlap empty", WordOverlap, "", "anything", 0},
		{"token sort reordered", TokenSortRatio, "milk fresh", "Fresh  Milk", 1},
		{"token sort disjoint", TokenSortRatio, "abc", "xyz", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.score(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
				t.Errorf("score(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestBestOrdersAndLimits(t *testing.T) {
	got := Best("coke 320ml", []string{"COKE 320ML", "COKE CAN 320ML", "SPRITE 1.5L", "coke 320ml"}, TokenSortRatio, 0.7, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Score != 1 || got[1].Score != 1 {
		t.Fatalf("expected both exact candidates first: %+v", got)
	}
	if got[0].Name != "COKE 320ML" {
		t.Errorf("ties must be ordered by name, got %+v", got)
	}
}

func fixtureLines() []InvoiceLine {
	return []InvoiceLine{
		{Supplier: "Old Drinks Co", ItemName: "Heineken Beer 490ml", InvoiceDate: day(1), UnitPrice: 3, UnitPriceItem: 3},
		{Supplier: "Drinks Co", ItemName: "HEINEKEN BEER 490ML", InvoiceDate: day(10), UnitPrice: 3.2, UnitPriceItem: 3.2},
		{Supplier: "Drinks Co", ItemName: "COKE CAN 320ML", InvoiceDate: day(10), UnitPrice: 24, IsCarton: true, ItemsPerCarton: 24},
		{Supplier: "Liquor Hub", ItemName: "JW Black 700ml", InvoiceDate: day(5), UnitPrice: 60, UnitPriceItem: 60},
		{Supplier: "Brewery", ItemName: "TIGER BEER 330ML CAN 24S", InvoiceDate: day(3), UnitPrice: 48, IsCarton: true, ItemsPerCarton: 24},
	}
}

func TestLatestInvoices(t *testing.T) {
	lines := []InvoiceLine{
		{Supplier: "A", ItemName: "Milk", InvoiceDate: day(2)},
		{Supplier: "B", ItemName: "milk", InvoiceDate: day(2)},
		{Supplier: "C", ItemName: "MILK", InvoiceDate: day(1)},
		{Supplier: "", ItemName: "Bread", InvoiceDate: day(9)},
	}
	got := LatestInvoices(lines)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (rows without supplier are skipped)", len(got))
	}
	if got["milk"].Supplier != "B" {
		t.Errorf("supplier = %q, want B (later position wins on equal date)", got["milk"].Supplier)
	}
}

func TestReconcilerInvoiceNames(t *testing.T) {
	aliases := []Alias{{POSName: "Coke Zero 320ml", InvoiceName: "COCA COLA ZERO 320ML"}}
	r := NewReconciler(aliases, fixtureLines(), []string{"Coke 320ml", "Coke Zero 320ml"}, DefaultThresholds())

	if got := r.InvoiceNamesFor("Coke Zero 320ml"); len(got) != 1 || got[0] != "COCA COLA ZERO 320ML" {
		t.Errorf("manual lookup = %v", got)
	}
	if got := r.InvoiceNamesFor("heineken beer 490ml"); len(got) != 1 || got[0] != "HEINEKEN BEER 490ML" {
		t.Errorf("exact lookup = %v", got)
	}
	if got := r.InvoiceNamesFor("Coke 320ml"); len(got) == 0 || got[0] != "COKE CAN 320ML" {
		t.Errorf("fuzzy lookup = %v", got)
	}
	if got := r.InvoiceNamesFor("Dragon Fruit"); len(got) != 0 {
		t.Errorf("unknown product matched %v", got)
	}
}

func TestReconcilerPOSNames(t *testing.T) {
	aliases := []Alias{{POSName: "Coke Zero 320ml", InvoiceName: "COCA COLA ZERO 320ML"}}
	r := NewReconciler(aliases, fixtureLines(), []string{"Coke 320ml", "Coke Zero 320ml"}, DefaultThresholds())

	if got := r.POSNamesFor("coca cola zero 320ml"); len(got) != 1 || got[0] != "Coke Zero 320ml" {
		t.Errorf("manual reverse = %v", got)
	}
	if got := r.POSNamesFor("COKE CAN 320ML"); len(got) != 1 || got[0] != "Coke 320ml" {
		t.Errorf("auto reverse = %v", got)
	}
}

func TestReconcilerSuppliers(t *testing.T) {
	r := NewReconciler(nil, fixtureLines(), nil, DefaultThresholds())

	if s, ok := r.SupplierOf("Heineken Beer 490ml"); !ok || s != "Drinks Co" {
		t.Errorf("SupplierOf = %q, %v; want most recent supplier", s, ok)
	}
	if s, ok := r.AssignSupplier("jw black 700ml"); !ok || s != "Liquor Hub" {
		t.Errorf("exact AssignSupplier = %q, %v", s, ok)
	}
	if s, ok := r.AssignSupplier("Heineken 490ml Can"); !ok || s != "Drinks Co" {
		// "drinks co" идёт раньше "old drinks co" при равном счёте
		t.Errorf("fuzzy AssignSupplier = %q, %v", s, ok)
	}
	if _, ok := r.AssignSupplier("Dragon Fruit"); ok {
		t.Error("unrelated product must not get a supplier")
	}
	if got := r.Suppliers(); len(got) != 4 || got[0] != "Brewery" {
		t.Errorf("Suppliers = %v", got)
	}
}

func TestExactInvoiceNeverFuzzy(t *testing.T) {
	r := NewReconciler(nil, fixtureLines(), nil, DefaultThresholds())

	if _, ok := r.ExactInvoice("JW Black 200ml"); ok {
		t.Fatal("different pack size must not match for price comparison")
	}
	if _, ok := r.CartonInvoice("JW Black 200ml"); ok {
		t.Fatal("2/3 word overlap is below carton threshold")
	}
	l, ok := r.CartonInvoice("Tiger Beer 330ml Can")
	if !ok || l.ItemsPerCarton != 24 {
		t.Fatalf("CartonInvoice = %+v, %v", l, ok)
	}
}

func TestPiecePrice(t *testing.T) {
	cases := []struct {
		name string
		line InvoiceLine
		want float64
	}{
		{"carton from carton price", InvoiceLine{IsCarton: true, ItemsPerCarton: 12, UnitPrice: 24, UnitPriceItem: 99}, 2},
		{"carton fallback", InvoiceLine{IsCarton: true, ItemsPerCarton: 10, UnitPriceItem: 15}, 1.5},
		{"loose piece price", InvoiceLine{UnitPrice: 3, UnitPriceItem: 1.5}, 1.5},
		{"loose unit price", InvoiceLine{UnitPrice: 3}, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.line.PiecePrice(); math.Abs(got-c.want) > 1e-9 {
				t.Errorf("PiecePrice = %v, want %v", got, c.want)
			}
		})
	}
}

func TestCostIndexLookup(t *testing.T) {
	ix := NewCostIndex([]CatalogCost{
		{ProductName: "MEIJI FRESH MILK 2L BOTTLE", UnitCost: 5.2, Barcode: "111"},
		{ProductName: "Gardenia Bread 400g", UnitCost: 2.1},
		{ProductName: "Free Sample", UnitCost: 0},
	}, 0.8)

	if ix.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (zero cost skipped)", ix.Len())
	}
	if c, ok := ix.Lookup("whatever", "111"); !ok || c.UnitCost != 5.2 {
		t.Errorf("barcode lookup = %+v, %v", c, ok)
	}
	if c, ok := ix.Lookup("gardenia bread 400G", ""); !ok || c.UnitCost != 2.1 {
		t.Errorf("exact lookup = %+v, %v", c, ok)
	}
	if c, ok := ix.Lookup("Meiji Fresh Milk 2L", ""); !ok || c.UnitCost != 5.2 {
		t.Errorf("fuzzy lookup = %+v, %v", c, ok)
	}
	if _, ok := ix.Lookup("Gardenia Bread 600g", ""); ok {
		t.Error("2/3 overlap is below cost threshold")
	}
	if _, ok := ix.Exact("Meiji Fresh Milk 2L"); ok {
		t.Error("Exact must not fall back to fuzzy")
	}
}
