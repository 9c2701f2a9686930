package sales

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// ListTransactions: транзакции за последние windowDays дней до самой свежей.
// Границу окна окончательно проверяет Analyze; здесь только отсекаем лишнее.
func (r *Repo) ListTransactions(ctx context.Context, windowDays int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_name, barcode, sold_at, quantity, line_amount
		FROM sales_transactions
		WHERE sold_at >= (SELECT max(sold_at) FROM sales_transactions) - make_interval(days => $1)
		ORDER BY sold_at, id
	`, windowDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.ProductName, &t.Barcode, &t.SoldAt, &t.Quantity, &t.LineAmount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertTransactions: пакетная вставка (импорт из xlsx).
func (r *Repo) InsertTransactions(ctx context.Context, txs []Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(`
			INSERT INTO sales_transactions (product_name, barcode, sold_at, quantity, line_amount)
			VALUES ($1,$2,$3,$4,$5)
		`, t.ProductName, t.Barcode, t.SoldAt, t.Quantity, t.LineAmount)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()
	for i := range txs {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}
	return len(txs), nil
}

// WriteForecasts заменяет таблицу прогнозов целиком в рамках внешней транзакции.
func WriteForecasts(ctx context.Context, tx pgx.Tx, forecasts map[string]Forecast) error {
	if _, err := tx.Exec(ctx, `DELETE FROM demand_forecasts`); err != nil {
		return err
	}
	for _, f := range Ranked(forecasts) {
		if _, err := tx.Exec(ctx, `
			INSERT INTO demand_forecasts (product_name, barcode, avg_daily_qty, trend, sales_frequency,
				volatility, total_qty, max_daily_qty, weekly_qty, weekly_value, computed_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, f.ProductName, f.Barcode, f.AvgDailyQty, string(f.Trend), f.SalesFrequency,
			f.Volatility, f.TotalQty, f.MaxDailyQty, f.WeeklyQty, f.WeeklyValue, f.ComputedAt); err != nil {
			return fmt.Errorf("insert forecast %q: %w", f.ProductName, err)
		}
	}
	return nil
}

func (r *Repo) ListForecasts(ctx context.Context) (map[string]Forecast, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_name, barcode, avg_daily_qty, trend, sales_frequency, volatility,
			total_qty, max_daily_qty, weekly_qty, weekly_value, computed_at
		FROM demand_forecasts
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]Forecast{}
	for rows.Next() {
		var (
			f     Forecast
			trend string
		)
		if err := rows.Scan(&f.ProductName, &f.Barcode, &f.AvgDailyQty, &trend, &f.SalesFrequency, &f.Volatility,
			&f.TotalQty, &f.MaxDailyQty, &f.WeeklyQty, &f.WeeklyValue, &f.ComputedAt); err != nil {
			return nil, err
		}
		f.Trend = Trend(trend)
		out[f.ProductName] = f
	}
	return out, rows.Err()
}
