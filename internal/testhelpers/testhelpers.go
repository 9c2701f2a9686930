package testhelpers

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/subosito/gotenv"

	"github.com/Spok95/order-planner/internal/infra/db"
)

func repoRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// SkipIfNoDatabase пропускает тест, если тестовая база недоступна.
// Иначе накатывает миграции и возвращает пул с пустыми таблицами.
func SkipIfNoDatabase(tb testing.TB) *pgxpool.Pool {
	tb.Helper()

	_ = gotenv.Load(filepath.Join(repoRoot(), ".env"))
	dsn := os.Getenv("APP_TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("APP_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		tb.Skip("database not available:", err)
	}
	if err := db.Migrate(dsn, filepath.Join(repoRoot(), "migrations")); err != nil {
		pool.Close()
		tb.Fatalf("migrate: %v", err)
	}
	Truncate(tb, pool)
	tb.Cleanup(pool.Close)
	return pool
}

// Truncate очищает данные, справочник ручных сопоставлений оставляет.
func Truncate(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	if _, err := pool.Exec(context.Background(), `
		TRUNCATE sales_transactions, supplier_orders, invoice_lines, catalog_costs, stock_levels,
			demand_forecasts, supplier_cadences, weekly_order_lines, weekly_orders, price_changes
		RESTART IDENTITY CASCADE
	`); err != nil {
		tb.Fatalf("truncate: %v", err)
	}
}
