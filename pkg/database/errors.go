package database

import (
	"fmt"
	"io"
	"syscall"

	"github.com/pingcap/errors"
	wErrors "github.com/ruslan-ilesik/games-bot-sub000/pkg/util/errors"
	"github.com/siddontang/go-mysql/mysql"
)

var (
	ErrPoolClosed        = errors.New("database pool is closed")
	ErrPoolNotRunning    = errors.New("database pool is not running")
	ErrPoolExhausted     = errors.New("no free database connection within claim timeout")
	ErrStatementNotFound = errors.New("prepared statement not found")
	ErrInvalidPoolSize   = errors.New("invalid database connections amount")
)

// mysql client error codes for a dropped link.
const (
	crServerGoneError = 2006
	crServerLost      = 2013
)

// ConnectionError is returned when a connection cannot be established.
// It is fatal at pool start-up.
type ConnectionError struct {
	Addr  string
	User  string
	cause error
}

func newConnectionError(addr, user string, cause error) *ConnectionError {
	return &ConnectionError{Addr: addr, User: user, cause: cause}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to mysql error, addr: %s, user: %s: %v", e.Addr, e.User, e.cause)
}

func (e *ConnectionError) Cause() error {
	return e.cause
}

func (e *ConnectionError) Unwrap() error {
	return e.cause
}

// QueryError carries the native driver message of a failed query.
type QueryError struct {
	SQL     string
	Code    uint16
	Message string
	cause   error
}

func newQueryError(sql string, cause error) *QueryError {
	qe := &QueryError{SQL: sql, cause: cause, Message: cause.Error()}
	if myErr, ok := errors.Cause(cause).(*mysql.MyError); ok {
		qe.Code = myErr.Code
		qe.Message = myErr.Message
	}
	return qe
}

func (e *QueryError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("query error %d: %s", e.Code, e.Message)
	}
	return "query error: " + e.Message
}

func (e *QueryError) Cause() error {
	return e.cause
}

func (e *QueryError) Unwrap() error {
	return e.cause
}

// IsQueryError reports whether err is, or wraps, a *QueryError.
func IsQueryError(err error) bool {
	for err != nil {
		if _, ok := err.(*QueryError); ok {
			return true
		}
		err = wErrors.Cause(err)
	}
	return false
}

// isConnectionLost reports whether err means the native link is gone and
// the query may be retried on a fresh connection.
func isConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	if wErrors.Is(err, mysql.ErrBadConn) || wErrors.Is(err, io.EOF) || wErrors.Is(err, io.ErrUnexpectedEOF) ||
		wErrors.Is(err, syscall.ECONNRESET) || wErrors.Is(err, syscall.EPIPE) {
		return true
	}
	if myErr, ok := errors.Cause(err).(*mysql.MyError); ok {
		return myErr.Code == crServerGoneError || myErr.Code == crServerLost
	}
	return false
}
