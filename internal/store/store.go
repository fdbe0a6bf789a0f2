package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/examlayout/internal/structure"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver selects the database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver accepts "sqlite" or "postgres".
func ParseDriver(s string) (Driver, error) {
	switch Driver(s) {
	case DriverSQLite, DriverPostgres:
		return Driver(s), nil
	}
	return "", fmt.Errorf("unsupported driver: %s", s)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs queries written with ? placeholders against a pool or a transaction.
type conn struct {
	q      queryer
	driver Driver
	inTx   bool
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

// rebind turns ? placeholders into $1, $2, ... for postgres.
func (c conn) rebind(query string) string {
	if c.driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Store is the slot store, question bank, attempt oracle and event log over database/sql.
type Store struct {
	conn
	db *sql.DB
}

// New opens (or creates) a SQLite database file. ":memory:" gives a private in-memory database.
func New(dbPath string) (*Store, error) {
	return Open(context.Background(), DriverSQLite, sqliteDSN(dbPath))
}

func sqliteDSN(path string) string {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	return dsn
}

// Open connects to the given backend and makes sure the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = sqliteDSN("examlayout.db")
		}
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/examlayout?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// One connection: in-memory databases are per connection and writers serialize anyway.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{conn: conn{q: db, driver: driver}, db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Driver reports the backend in use.
func (s *Store) Driver() Driver {
	return s.driver
}

func (s *Store) migrate(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// InTx runs fn in one transaction, committing only when fn succeeds.
// Every read and write made through the given Tx uses that transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx structure.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txConn{conn: conn{q: sqlTx, driver: s.driver, inTx: true}}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// txConn is the structure.Tx handed out by InTx.
type txConn struct {
	conn
}

var (
	_ structure.SlotStore = (*Store)(nil)
	_ structure.Tx        = (*txConn)(nil)
)
