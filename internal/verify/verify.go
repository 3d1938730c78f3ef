// Package verify proves freshly mapped database credentials by dialing the
// database and running a probe query. It reads the projected variables back
// from the store, so it checks exactly what a child process would see.
package verify

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	smerrors "github.com/systmms/secretmap/internal/errors"
	"github.com/systmms/secretmap/pkg/secretmap"
	"github.com/systmms/secretmap/pkg/varstore"
)

// driverMap translates payload engine names to database/sql driver names.
// Only engines whose driver this binary links appear here.
var driverMap = map[string]string{
	"postgresql": "postgres",
	"postgres":   "postgres",
	"mysql":      "mysql",
	"mariadb":    "mysql",
}

// probeQuery runs after a successful ping to prove the credentials can
// actually execute statements, not just open a socket.
const probeQuery = "SELECT 1"

const defaultTimeout = 30 * time.Second

// Credentials holds one database_credentials projection read back out of
// the variable store.
type Credentials struct {
	Engine   string
	Username string
	Password string
	Host     string
	DBName   string
	Port     string
}

// FromStore reads the six database variables for one secret from the store
// using the secret's effective field mapping.
func FromStore(store *varstore.Store, mapping secretmap.Mapping) (Credentials, error) {
	read := func(field string) (string, error) {
		variable, ok := mapping[field]
		if !ok {
			return "", fmt.Errorf("mapping has no variable for field %q", field)
		}
		value, ok := store.Lookup(variable)
		if !ok {
			return "", fmt.Errorf("variable %s (field %q) is not set", variable, field)
		}
		return value, nil
	}

	var creds Credentials
	var err error
	if creds.Engine, err = read("engine"); err != nil {
		return Credentials{}, err
	}
	if creds.Username, err = read("username"); err != nil {
		return Credentials{}, err
	}
	if creds.Password, err = read("password"); err != nil {
		return Credentials{}, err
	}
	if creds.Host, err = read("host"); err != nil {
		return Credentials{}, err
	}
	if creds.DBName, err = read("dbname"); err != nil {
		return Credentials{}, err
	}
	if creds.Port, err = read("port"); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// dsn resolves the driver name and builds the engine-appropriate connection
// string.
func (c Credentials) dsn() (driver, dsn string, err error) {
	driver, ok := driverMap[strings.ToLower(c.Engine)]
	if !ok {
		return "", "", smerrors.UserError{
			Message:    fmt.Sprintf("unsupported database engine %q", c.Engine),
			Suggestion: "Supported engines: mariadb, mysql, postgres, postgresql",
		}
	}

	switch driver {
	case "postgres":
		dsn = strings.Join([]string{
			"host=" + c.Host,
			"port=" + c.Port,
			"dbname=" + c.DBName,
			"user=" + c.Username,
			"password=" + c.Password,
			"sslmode=require",
		}, " ")
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			c.Username, c.Password, c.Host, c.Port, c.DBName)
	}
	return driver, dsn, nil
}

// Verifier opens database connections and runs the probe query.
type Verifier struct {
	timeout time.Duration
	open    func(driver, dsn string) (*sql.DB, error)
}

// Option adjusts a Verifier.
type Option func(*Verifier)

// WithTimeout bounds each verification attempt. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithOpener replaces the database opener. Tests inject sqlmock through it.
func WithOpener(open func(driver, dsn string) (*sql.DB, error)) Option {
	return func(v *Verifier) {
		v.open = open
	}
}

// New returns a Verifier with the default opener and timeout.
func New(opts ...Option) *Verifier {
	v := &Verifier{
		timeout: defaultTimeout,
		open:    sql.Open,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify connects with creds, pings the server, and runs the probe query.
// It returns nil only when the credentials can execute a statement.
func (v *Verifier) Verify(ctx context.Context, creds Credentials) error {
	driver, dsn, err := creds.dsn()
	if err != nil {
		return err
	}

	db, err := v.open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s at %s:%s: %w", creds.Engine, creds.Host, creds.Port, err)
	}

	var result int
	if err := db.QueryRowContext(ctx, probeQuery).Scan(&result); err != nil {
		return fmt.Errorf("probe query failed: %w", err)
	}
	return nil
}
