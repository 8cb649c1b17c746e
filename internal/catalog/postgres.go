package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	productsQuery      = `SELECT sku, name, stock, moq, description FROM products ORDER BY sku`
	defaultPingTimeout = 5 * time.Second
)

// OpenPostgres opens a pgx-backed database/sql handle and checks it is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// LoadPostgres reads the products table.
func LoadPostgres(ctx context.Context, db *sql.DB) (*Store, error) {
	const source = "postgres://products"

	rs, err := db.QueryContext(ctx, productsQuery)
	if err != nil {
		return nil, newCatalogError(source, fmt.Errorf("query products: %w", err))
	}
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var (
			sku, name, desc sql.NullString
			stock, moq      sql.NullInt64
		)
		if err := rs.Scan(&sku, &name, &stock, &moq, &desc); err != nil {
			return nil, newCatalogError(source, fmt.Errorf("scan product: %w", err))
		}
		r := Row{
			codeColumns[0]: sku.String,
			nameColumns[0]: name.String,
			"Description":  desc.String,
		}
		if stock.Valid {
			r[stockColumns[0]] = strconv.FormatInt(stock.Int64, 10)
		}
		if moq.Valid {
			r[moqColumns[0]] = strconv.FormatInt(moq.Int64, 10)
		}
		rows = append(rows, r)
	}
	if err := rs.Err(); err != nil {
		return nil, newCatalogError(source, fmt.Errorf("iterate products: %w", err))
	}
	return normalizeRows(source, rows)
}
