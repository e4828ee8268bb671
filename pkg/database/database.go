// Package database implements the asynchronous MySQL access layer shared by
// the games, the web API and the statistics jobs.
//
// A Pool owns a fixed number of Connections, each with its own worker
// goroutine. Queries are accepted immediately and resolved through a Task;
// exactly one Connection executes each accepted query. Prepared statements
// are registered pool-wide and mirrored on every Connection.
package database

import (
	"context"
	"time"
)

// Config keys consumed by the pool.
const (
	KeyMySQLIP                = "mysql_ip"
	KeyMySQLUser              = "mysql_user"
	KeyMySQLPassword          = "mysql_password"
	KeyMySQLDBName            = "mysql_db_name"
	KeyMySQLConnectionsAmount = "mysql_connections_amount"
	KeyMySQLClaimTimeout      = "mysql_claim_timeout"
)

const (
	defaultConnectionsAmount = "2"
	defaultClaimTimeout      = "30s"
)

// Config resolves named configuration values.
type Config interface {
	GetValue(name string) (string, error)
	GetValueOr(name, defaultValue string) string
}

// Database is the contract consumed by the rest of the bot.
type Database interface {
	Execute(ctx context.Context, sql string) *Task[Rows]
	BackgroundExecute(sql string)
	CreatePreparedStatement(ctx context.Context, sql string) (StatementHandle, error)
	RemovePreparedStatement(ctx context.Context, handle StatementHandle) error
	ExecutePreparedStatement(ctx context.Context, handle StatementHandle, args ...interface{}) *Task[Rows]
	BackgroundExecutePreparedStatement(handle StatementHandle, args ...interface{})
}

var _ Database = (*Pool)(nil)

// Option customizes a Pool.
type Option func(*Pool)

// WithDialer replaces the go-mysql dialer.
func WithDialer(dialer Dialer) Option {
	return func(p *Pool) {
		p.dialer = dialer
	}
}

// WithClaimTimeout overrides mysql_claim_timeout. Zero disables the bound.
func WithClaimTimeout(d time.Duration) Option {
	return func(p *Pool) {
		p.claimTimeout = d
		p.claimTimeoutSet = true
	}
}
