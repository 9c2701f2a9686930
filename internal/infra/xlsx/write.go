package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/order-planner/internal/domain/planning"
)

const (
	ordersSheet = "Orders"
	linesSheet  = "Items"
)

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// WritePlan выгружает заказы: лист с заказами и лист с позициями.
func WritePlan(w io.Writer, orders []planning.WeeklyOrder) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), ordersSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(linesSheet); err != nil {
		return err
	}

	orderRows := [][]interface{}{{
		"order_id", "week_start", "week_label", "supplier_name", "items", "total_amount", "status", "notes",
	}}
	lineRows := [][]interface{}{{
		"order_id", "week_label", "supplier_name", "position", "product_name", "order_unit",
		"quantity", "items_per_carton", "unit_cost", "unit_price", "subtotal", "urgency",
	}}
	for i, o := range orders {
		ref := o.ID
		if ref == 0 {
			ref = int64(i + 1)
		}
		orderRows = append(orderRows, []interface{}{
			ref, o.WeekStart.Format(time.DateOnly), o.WeekLabel, o.Supplier, len(o.Lines), o.Total, string(o.Status), o.Notes,
		})
		for _, l := range o.Lines {
			lineRows = append(lineRows, []interface{}{
				ref, o.WeekLabel, o.Supplier, l.Position, l.ProductName, string(l.OrderUnit),
				l.Quantity, l.ItemsPerCarton, l.UnitCost, l.UnitPrice, l.Subtotal, string(l.Urgency),
			})
		}
	}

	if err := writeRows(f, ordersSheet, orderRows); err != nil {
		return err
	}
	if err := writeRows(f, linesSheet, lineRows); err != nil {
		return err
	}
	return f.Write(w)
}
