package xlsx

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/order-planner/internal/domain/catalog"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
)

// RowError: строка файла, которую не удалось разобрать (номер как в Excel).
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-Jan-2006",
	"02-Jan-06",
	"2-Jan-2006",
	"2-Jan-06",
	"02/01/2006 15:04",
	"02/01/2006",
	"01-02-06",
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// sheet: первый лист с индексом колонок по заголовку.
type sheet struct {
	rows [][]string
	cols map[string]int
}

func open(r io.Reader, required ...string) (*sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook is empty")
	}

	s := &sheet{rows: rows[1:], cols: map[string]int{}}
	for i, h := range rows[0] {
		s.cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := s.cols[strings.ToLower(name)]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return s, nil
}

func (s *sheet) cell(row []string, name string) string {
	i, ok := s.cols[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadSales читает выгрузку кассы. Аннулированные чеки пропускаются.
func ReadSales(r io.Reader, loc *time.Location) ([]sales.Transaction, []RowError, error) {
	s, err := open(r, "Date", "Transaction Item", "Transaction Item Quantity")
	if err != nil {
		return nil, nil, err
	}
	var (
		out  []sales.Transaction
		errs []RowError
	)
	for i, row := range s.rows {
		n := i + 2
		if blank(row) || parseBool(s.cell(row, "Voided")) {
			continue
		}
		name := s.cell(row, "Transaction Item")
		if name == "" {
			errs = append(errs, RowError{n, fmt.Errorf("empty item name")})
			continue
		}
		at, err := parseTime(s.cell(row, "Date"), loc)
		if err != nil {
			errs = append(errs, RowError{n, err})
			continue
		}
		qty, err := parseFloat(s.cell(row, "Transaction Item Quantity"))
		if err != nil {
			errs = append(errs, RowError{n, fmt.Errorf("quantity: %w", err)})
			continue
		}
		amount, err := parseFloat(s.cell(row, "Transaction Item Final Amount ($)"))
		if err != nil {
			errs = append(errs, RowError{n, fmt.Errorf("amount: %w", err)})
			continue
		}
		out = append(out, sales.Transaction{
			ProductName: name,
			Barcode:     s.cell(row, "SKU Number"),
			SoldAt:      at,
			Quantity:    qty,
			LineAmount:  amount,
		})
	}
	return out, errs, nil
}

// ReadOrders читает журнал оплат поставщикам.
func ReadOrders(r io.Reader) ([]suppliers.Order, []RowError, error) {
	s, err := open(r, "Date", "Suppliers")
	if err != nil {
		return nil, nil, err
	}
	var (
		out  []suppliers.Order
		errs []RowError
	)
	for i, row := range s.rows {
		n := i + 2
		if blank(row) {
			continue
		}
		supplier := s.cell(row, "Suppliers")
		if supplier == "" {
			errs = append(errs, RowError{n, fmt.Errorf("empty supplier")})
			continue
		}
		d, err := parseTime(s.cell(row, "Date"), time.UTC)
		if err != nil {
			errs = append(errs, RowError{n, err})
			continue
		}
		amount, err := parseFloat(s.cell(row, "Currency (SGD)"))
		if err != nil {
			errs = append(errs, RowError{n, fmt.Errorf("amount: %w", err)})
			continue
		}
		out = append(out, suppliers.Order{Supplier: supplier, OrderDate: d, Amount: amount})
	}
	return out, errs, nil
}

// ReadInvoices читает строки накладных в формате таблицы invoice_lines.
func ReadInvoices(r io.Reader) ([]catalog.InvoiceLine, []RowError, error) {
	s, err := open(r, "supplier_name", "item_name", "invoice_date", "unit_price")
	if err != nil {
		return nil, nil, err
	}
	var (
		out  []catalog.InvoiceLine
		errs []RowError
	)
	for i, row := range s.rows {
		n := i + 2
		if blank(row) {
			continue
		}
		l := catalog.InvoiceLine{
			Supplier: s.cell(row, "supplier_name"),
			ItemName: s.cell(row, "item_name"),
			Barcode:  s.cell(row, "barcode"),
			IsCarton: parseBool(s.cell(row, "is_carton")),
		}
		if l.Supplier == "" || l.ItemName == "" {
			errs = append(errs, RowError{n, fmt.Errorf("supplier and item name are required")})
			continue
		}
		if l.InvoiceDate, err = parseTime(s.cell(row, "invoice_date"), time.UTC); err != nil {
			errs = append(errs, RowError{n, err})
			continue
		}
		var perr error
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{"unit_price", &l.UnitPrice},
			{"unit_price_item", &l.UnitPriceItem},
			{"total_line_price", &l.TotalLinePrice},
		} {
			if *f.dst, perr = parseFloat(s.cell(row, f.col)); perr != nil {
				perr = fmt.Errorf("%s: %w", f.col, perr)
				break
			}
		}
		if perr != nil {
			errs = append(errs, RowError{n, perr})
			continue
		}
		l.ItemsPerCarton = 1
		if v := s.cell(row, "items_per_carton"); v != "" {
			ipc, err := strconv.Atoi(v)
			if err != nil || ipc < 1 {
				errs = append(errs, RowError{n, fmt.Errorf("items_per_carton must be >= 1")})
				continue
			}
			l.ItemsPerCarton = ipc
		}
		out = append(out, l)
	}
	return out, errs, nil
}

// ReadCatalogCosts читает мастер-список товаров с себестоимостью.
func ReadCatalogCosts(r io.Reader) ([]catalog.CatalogCost, []RowError, error) {
	s, err := open(r, "Product Name", "Unit Cost")
	if err != nil {
		return nil, nil, err
	}
	var (
		out  []catalog.CatalogCost
		errs []RowError
	)
	for i, row := range s.rows {
		n := i + 2
		if blank(row) {
			continue
		}
		name := s.cell(row, "Product Name")
		if name == "" {
			errs = append(errs, RowError{n, fmt.Errorf("empty product name")})
			continue
		}
		cost, err := parseFloat(s.cell(row, "Unit Cost"))
		if err != nil {
			errs = append(errs, RowError{n, fmt.Errorf("unit cost: %w", err)})
			continue
		}
		out = append(out, catalog.CatalogCost{
			ProductName: name,
			UnitCost:    cost,
			Barcode:     s.cell(row, "Barcode"),
			Category:    s.cell(row, "Category"),
		})
	}
	return out, errs, nil
}
