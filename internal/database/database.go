package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"marketselect/internal/config"
	"marketselect/internal/types"

	_ "github.com/sijms/go-ora/v2"
)

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(cfg config.DatabaseConfig) string {
	if cfg.WalletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Service,
			url.PathEscape(cfg.WalletLocation))
	}

	// Fallback to standard connection without wallet
	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(cfg.Username, cfg.Password), // escapes automatically
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Service, // keep full service name
		RawQuery: "ssl=true",        // ADB requires TCPS on 1522
	}).String()
}

// Database holds the database connection and configuration.
type Database struct {
	db    *sql.DB
	table string
}

// New opens and pings a connection using the given configuration.
func New(cfg config.DatabaseConfig) (*Database, error) {
	db, err := sql.Open("oracle", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{db: db, table: cfg.Table}, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// QueryMarketRecords loads the full market-summary table. Gross income falls
// back to gross rent when the column is NULL, matching the file loader.
func (d *Database) QueryMarketRecords(ctx context.Context) ([]types.MarketRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			City, Period, Gross_Rent, Vacancy_Rate, Operating_Expenses,
			NVL(Gross_Income, Gross_Rent), NVL(Latitude, 0), NVL(Longitude, 0)
		FROM %s
		ORDER BY City, Period
	`, d.table)

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query market records: %w", err)
	}
	defer rows.Close()

	var records []types.MarketRecord
	for rows.Next() {
		var rec types.MarketRecord
		err := rows.Scan(
			&rec.City, &rec.Period, &rec.GrossRent, &rec.VacancyRate,
			&rec.OperatingExpenses, &rec.GrossIncome, &rec.Latitude, &rec.Longitude,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read market records: %w", err)
	}

	return records, nil
}

// QueryCityRecords loads the history for a single city.
func (d *Database) QueryCityRecords(ctx context.Context, city string) ([]types.MarketRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			City, Period, Gross_Rent, Vacancy_Rate, Operating_Expenses,
			NVL(Gross_Income, Gross_Rent), NVL(Latitude, 0), NVL(Longitude, 0)
		FROM %s
		WHERE UPPER(City) = UPPER(:1)
		ORDER BY Period
	`, d.table)

	rows, err := d.db.QueryContext(ctx, query, city)
	if err != nil {
		return nil, fmt.Errorf("failed to query city records: %w", err)
	}
	defer rows.Close()

	var records []types.MarketRecord
	for rows.Next() {
		var rec types.MarketRecord
		err := rows.Scan(
			&rec.City, &rec.Period, &rec.GrossRent, &rec.VacancyRate,
			&rec.OperatingExpenses, &rec.GrossIncome, &rec.Latitude, &rec.Longitude,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
