package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const invoiceColumns = `id, supplier_name, item_name, barcode, invoice_date, unit_price, unit_price_item,
	is_carton, items_per_carton, total_line_price`

func scanInvoiceLines(rows pgx.Rows) ([]InvoiceLine, error) {
	defer rows.Close()
	var out []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.Supplier, &l.ItemName, &l.Barcode, &l.InvoiceDate, &l.UnitPrice,
			&l.UnitPriceItem, &l.IsCarton, &l.ItemsPerCarton, &l.TotalLinePrice); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

/* Invoices */

// ListInvoiceLines: все строки накладных, старые первыми (LatestInvoices опирается на порядок).
func (r *Repo) ListInvoiceLines(ctx context.Context) ([]InvoiceLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoice_lines
		WHERE supplier_name <> '' AND item_name <> ''
		ORDER BY invoice_date, id
	`)
	if err != nil {
		return nil, err
	}
	return scanInvoiceLines(rows)
}

// LatestInvoiceLines: по одной самой свежей строке на товар (регистр и пробелы не учитываются).
func (r *Repo) LatestInvoiceLines(ctx context.Context) ([]InvoiceLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (lower(regexp_replace(btrim(item_name), '\s+', ' ', 'g')))
			`+invoiceColumns+`
		FROM invoice_lines
		WHERE supplier_name <> '' AND item_name <> ''
		ORDER BY lower(regexp_replace(btrim(item_name), '\s+', ' ', 'g')), invoice_date DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	return scanInvoiceLines(rows)
}

// InsertInvoiceLines: пакетная вставка (импорт из xlsx).
func (r *Repo) InsertInvoiceLines(ctx context.Context, lines []InvoiceLine) (int, error) {
	if len(lines) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		ipc := l.ItemsPerCarton
		if ipc < 1 {
			ipc = 1
		}
		batch.Queue(`
			INSERT INTO invoice_lines (supplier_name, item_name, barcode, invoice_date, unit_price,
				unit_price_item, is_carton, items_per_carton, total_line_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, l.Supplier, l.ItemName, l.Barcode, l.InvoiceDate, l.UnitPrice, l.UnitPriceItem, l.IsCarton, ipc, l.TotalLinePrice)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()
	for i := range lines {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("insert invoice line %d: %w", i, err)
		}
	}
	return len(lines), nil
}

/* Catalog costs */

func (r *Repo) ListCatalogCosts(ctx context.Context) ([]CatalogCost, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_name, unit_cost, barcode, category
		FROM catalog_costs
		ORDER BY product_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CatalogCost
	for rows.Next() {
		var c CatalogCost
		if err := rows.Scan(&c.ProductName, &c.UnitCost, &c.Barcode, &c.Category); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertCatalogCost(ctx context.Context, c CatalogCost) error {
	if c.ProductName == "" {
		return fmt.Errorf("product name is required")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO catalog_costs (product_name, unit_cost, barcode, category)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (product_name)
		DO UPDATE SET unit_cost = EXCLUDED.unit_cost, barcode = EXCLUDED.barcode, category = EXCLUDED.category
	`, c.ProductName, c.UnitCost, c.Barcode, c.Category)
	return err
}

/* Aliases */

func (r *Repo) ListAliases(ctx context.Context) ([]Alias, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pos_name, invoice_name
		FROM product_aliases
		ORDER BY pos_name, invoice_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Alias
	for rows.Next() {
		var a Alias
		if err := rows.Scan(&a.POSName, &a.InvoiceName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertAlias(ctx context.Context, a Alias) error {
	if a.POSName == "" || a.InvoiceName == "" {
		return fmt.Errorf("both names are required")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product_aliases (pos_name, invoice_name)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, a.POSName, a.InvoiceName)
	return err
}

// ListPOSNames: различные названия товаров из кассы.
func (r *Repo) ListPOSNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT product_name
		FROM sales_transactions
		WHERE product_name <> ''
		ORDER BY product_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
