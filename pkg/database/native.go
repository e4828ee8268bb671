package database

import (
	"context"
	"net"

	"github.com/pingcap/errors"
	"github.com/siddontang/go-mysql/client"
	"github.com/siddontang/go-mysql/mysql"
)

const defaultMySQLPort = "3306"

// NativeConn is one physical link to the database server. It is not safe
// for concurrent use.
type NativeConn interface {
	Execute(sql string, args ...interface{}) (Rows, error)
	Prepare(sql string) (NativeStmt, error)
	Close() error
}

// NativeStmt is a server-side prepared statement bound to one NativeConn.
type NativeStmt interface {
	Execute(args ...interface{}) (Rows, error)
	Close() error
}

// ConnConfig holds the resolved parameters of a physical connection.
type ConnConfig struct {
	Addr     string
	User     string
	Password string
	DBName   string
}

// Dialer opens a NativeConn.
type Dialer func(ctx context.Context, cfg *ConnConfig) (NativeConn, error)

// DialMySQL opens a go-mysql client connection.
func DialMySQL(ctx context.Context, cfg *ConnConfig) (NativeConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := client.Connect(cfg.Addr, cfg.User, cfg.Password, cfg.DBName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &mysqlConn{conn: conn}, nil
}

// normalizeAddr appends the default port when mysql_ip is a bare host.
func normalizeAddr(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, defaultMySQLPort)
}

type mysqlConn struct {
	conn *client.Conn
}

func (c *mysqlConn) Execute(sql string, args ...interface{}) (Rows, error) {
	result, err := c.conn.Execute(sql, args...)
	if err != nil {
		return nil, err
	}
	return convertResult(result)
}

func (c *mysqlConn) Prepare(sql string) (NativeStmt, error) {
	stmt, err := c.conn.Prepare(sql)
	if err != nil {
		return nil, err
	}
	return &mysqlStmt{stmt: stmt}, nil
}

func (c *mysqlConn) Close() error {
	return c.conn.Close()
}

type mysqlStmt struct {
	stmt *client.Stmt
}

func (s *mysqlStmt) Execute(args ...interface{}) (Rows, error) {
	result, err := s.stmt.Execute(args...)
	if err != nil {
		return nil, err
	}
	return convertResult(result)
}

func (s *mysqlStmt) Close() error {
	return s.stmt.Close()
}

// convertResult materializes a go-mysql result into Rows. A result without
// a result set (INSERT, UPDATE, DDL) yields one empty placeholder row.
func convertResult(result *mysql.Result) (Rows, error) {
	if result == nil || result.Resultset == nil {
		return placeholderRows(), nil
	}

	rs := result.Resultset
	rows := make(Rows, 0, rs.RowNumber())
	for r := 0; r < rs.RowNumber(); r++ {
		row := make(Row, len(rs.Fields))
		for c, field := range rs.Fields {
			name := string(field.Name)
			isNull, err := rs.IsNull(r, c)
			if err != nil {
				return nil, errors.Trace(err)
			}
			if isNull {
				row[name] = NullValue
				continue
			}
			value, err := rs.GetString(r, c)
			if err != nil {
				return nil, errors.Trace(err)
			}
			row[name] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}
