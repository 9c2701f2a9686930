package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) ListStock(ctx context.Context) ([]Level, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_name, qty, updated_at
		FROM stock_levels
		ORDER BY product_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Level
	for rows.Next() {
		var l Level
		if err := rows.Scan(&l.ProductName, &l.Qty, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SetStock записывает остаток как есть (отрицательный допускается: касса уходит в минус).
func (r *Repo) SetStock(ctx context.Context, productName string, qty float64) error {
	if productName == "" {
		return fmt.Errorf("product name is required")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stock_levels (product_name, qty, updated_at)
		VALUES ($1,$2, now())
		ON CONFLICT (product_name)
		DO UPDATE SET qty = EXCLUDED.qty, updated_at = now()
	`, productName, qty)
	return err
}

// GetStock возвращает остаток (0, nil если записи нет).
func (r *Repo) GetStock(ctx context.Context, productName string) (float64, error) {
	var qty float64
	err := r.pool.
		QueryRow(ctx, `SELECT qty FROM stock_levels WHERE product_name = $1`, productName).
		Scan(&qty)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return qty, err
}
