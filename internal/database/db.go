package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	defaultMaxOpen     = 25
	defaultMaxIdle     = 25
	defaultMaxLifetime = 30 * time.Minute
	pingTimeout        = 5 * time.Second
)

// Pool bounds the MySQL connection pool. Zero values select the
// defaults.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

func (p Pool) withDefaults() Pool {
	if p.MaxOpen <= 0 {
		p.MaxOpen = defaultMaxOpen
	}
	if p.MaxIdle <= 0 {
		p.MaxIdle = defaultMaxIdle
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = defaultMaxLifetime
	}
	return p
}

// dsn builds the driver connection string. parseTime maps DATETIME
// columns to time.Time and loc=UTC keeps every timestamp in UTC, which
// the token expiry comparisons rely on.
func dsn(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)
}

// Open connects to MySQL with the given pool bounds and verifies the
// connection with a bounded ping.
func Open(user, pass, host, port, name string, pool Pool) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	pool = pool.withDefaults()
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
