package shared

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names a supported SQL driver. The value doubles as the database/sql driver name.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite3"
	DialectMySQL  Dialect = "mysql"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open(string(DialectSQLite), path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewMySQLDatabase opens a MySQL connection pool for the given DSN and verifies it with a bounded ping.
//
// The DSN must carry parseTime=true so DATE and DATETIME columns scan into [time.Time].
func NewMySQLDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(DialectMySQL), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// OpenDatabase opens the database described by cfg, applies pool settings and returns it with its [Dialect].
func OpenDatabase(cfg DatabaseConfig) (*sql.DB, Dialect, error) {
	var (
		db  *sql.DB
		err error
	)

	dialect := Dialect(cfg.Driver)
	switch dialect {
	case "", DialectSQLite:
		dialect = DialectSQLite
		db, err = NewDatabase(cfg.Path)
	case DialectMySQL:
		db, err = NewMySQLDatabase(cfg.DSN)
	default:
		return nil, "", fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, cfg.Driver)
	}
	if err != nil {
		return nil, "", err
	}

	ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	return db, dialect, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Zero values leave the driver defaults in place.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}
