package pricechanges

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Insert добавляет изменения в рамках внешней транзакции, повторы по ключу пропускаются.
// Возвращает число реально вставленных строк.
func Insert(ctx context.Context, tx pgx.Tx, changes []Change) (int, error) {
	inserted := 0
	for _, c := range changes {
		tag, err := tx.Exec(ctx, `
			INSERT INTO price_changes (item_name, supplier, inventory_price, invoice_price,
				price_difference, percentage_hike)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (item_name, supplier, inventory_price, invoice_price) DO NOTHING
		`, c.ItemName, c.Supplier, c.InventoryPrice, c.InvoicePrice, c.PriceDifference, c.PercentageHike)
		if err != nil {
			return inserted, fmt.Errorf("insert price change %q: %w", c.ItemName, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Rebuild очищает таблицу и заполняет заново одним снимком.
func (r *Repo) Rebuild(ctx context.Context, changes []Change) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `DELETE FROM price_changes`); err != nil {
		return 0, err
	}
	n, err := Insert(ctx, tx, changes)
	if err != nil {
		return 0, err
	}
	return n, tx.Commit(ctx)
}

// List: все изменения; reviewed != nil фильтрует по отметке о просмотре.
func (r *Repo) List(ctx context.Context, reviewed *bool) ([]Change, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, item_name, supplier, inventory_price, invoice_price, price_difference,
			percentage_hike, reviewed, detected_at
		FROM price_changes
		WHERE $1::boolean IS NULL OR reviewed = $1
		ORDER BY percentage_hike DESC, item_name
	`, reviewed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Change
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.ID, &c.ItemName, &c.Supplier, &c.InventoryPrice, &c.InvoicePrice,
			&c.PriceDifference, &c.PercentageHike, &c.Reviewed, &c.DetectedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) MarkReviewed(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE price_changes SET reviewed = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM price_changes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
