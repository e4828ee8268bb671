package database

import (
	"context"
	"sync"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/metrics"
	"github.com/siddontang/go-mysql/mysql"
	"github.com/siddontang/go/sync2"
	"go.uber.org/zap"
)

type mirroredStmt struct {
	sql  string
	stmt NativeStmt
}

// Connection owns one physical link, its worker goroutine and its mirror of
// the pool's prepared statements.
type Connection struct {
	id     int
	pool   *Pool
	dialer Dialer
	logger *zap.Logger

	// guarded by pool.mu
	busy    bool
	running bool

	// nativeMu serialises every use of native and prepared.
	nativeMu sync.Mutex
	cfg      *ConnConfig
	native   NativeConn
	prepared map[StatementHandle]*mirroredStmt

	queries    sync2.AtomicInt64
	reconnects sync2.AtomicInt64

	exited chan struct{}
}

func newConnection(id int, pool *Pool) *Connection {
	return &Connection{
		id:       id,
		pool:     pool,
		dialer:   pool.dialer,
		logger:   pool.logger.With(zap.Int("conn", id)),
		prepared: make(map[StatementHandle]*mirroredStmt),
		exited:   make(chan struct{}),
	}
}

func resolveConnConfig(cfg Config) (*ConnConfig, error) {
	var (
		c   ConnConfig
		err error
	)
	if c.Addr, err = cfg.GetValue(KeyMySQLIP); err != nil {
		return nil, errors.WithMessage(err, "resolve "+KeyMySQLIP)
	}
	if c.User, err = cfg.GetValue(KeyMySQLUser); err != nil {
		return nil, errors.WithMessage(err, "resolve "+KeyMySQLUser)
	}
	if c.Password, err = cfg.GetValue(KeyMySQLPassword); err != nil {
		return nil, errors.WithMessage(err, "resolve "+KeyMySQLPassword)
	}
	if c.DBName, err = cfg.GetValue(KeyMySQLDBName); err != nil {
		return nil, errors.WithMessage(err, "resolve "+KeyMySQLDBName)
	}
	c.Addr = normalizeAddr(c.Addr)
	return &c, nil
}

// connect opens the native handle and prepares the given statements on it.
func (c *Connection) connect(ctx context.Context, statements map[StatementHandle]string) error {
	cfg, err := resolveConnConfig(c.pool.cfg)
	if err != nil {
		c.logger.Error("resolve mysql config error", zap.Error(err))
		return err
	}

	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	c.cfg = cfg
	native, err := c.dialer(ctx, cfg)
	if err != nil {
		cerr := newConnectionError(cfg.Addr, cfg.User, err)
		c.logger.Error("connect to mysql error", zap.String("addr", cfg.Addr), zap.String("user", cfg.User),
			zap.Bool("fatal", true), zap.Error(err))
		return cerr
	}
	c.native = native
	c.logger.Info("connected to mysql", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBName))

	for handle, sql := range statements {
		stmt, err := native.Prepare(sql)
		if err != nil {
			c.closeNativeLocked()
			return newQueryError(sql, err)
		}
		c.prepared[handle] = &mirroredStmt{sql: sql, stmt: stmt}
	}
	return nil
}

func (c *Connection) start() {
	go c.loop()
}

func (c *Connection) loop() {
	defer close(c.exited)

	for {
		r, ok := c.pool.nextRequest(c)
		if !ok {
			return
		}
		c.run(r)
	}
}

func (c *Connection) run(r *request) {
	metrics.DatabaseClaimWaitHistogram.Observe(time.Since(r.enqueued).Seconds())

	start := time.Now()
	rows, err := c.execute(r)
	metrics.DatabaseQueryDurationHistogram.WithLabelValues(metrics.ClassifySQL(r.sql)).Observe(time.Since(start).Seconds())
	c.queries.Add(1)

	c.pool.release(c)
	c.pool.settle(r, rows, err)
}

func (c *Connection) execute(r *request) (Rows, error) {
	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	if !r.prepared {
		return c.executeQuery(r.sql)
	}
	return c.executePrepared(r.handle, r.args)
}

func (c *Connection) executeQuery(sql string) (Rows, error) {
	var rows Rows
	err := c.withNativeLocked(sql, func(native NativeConn) error {
		var err error
		rows, err = native.Execute(sql)
		return err
	})
	return rows, err
}

func (c *Connection) executePrepared(handle StatementHandle, args []interface{}) (Rows, error) {
	m, ok := c.prepared[handle]
	if !ok {
		return nil, errors.Trace(ErrStatementNotFound)
	}

	var rows Rows
	err := c.withNativeLocked(m.sql, func(NativeConn) error {
		var err error
		rows, err = m.stmt.Execute(args...)
		return err
	})
	return rows, err
}

// withNativeLocked runs fn against the native handle. A lost connection is
// reopened once and fn retried once; any other failure is a QueryError.
func (c *Connection) withNativeLocked(sql string, fn func(native NativeConn) error) error {
	if c.native == nil {
		if err := c.reconnectLocked(); err != nil {
			return newQueryError(sql, err)
		}
	}

	err := c.callNative(fn)
	if err == nil {
		return nil
	}
	if !isConnectionLost(err) {
		c.logger.Warn("query error", zap.String("sql", sql), zap.Error(err))
		return newQueryError(sql, err)
	}

	c.logger.Warn("mysql connection lost, reconnecting", zap.Error(err))
	if rerr := c.reconnectLocked(); rerr != nil {
		return newQueryError(sql, errors.WithMessage(rerr, err.Error()))
	}
	if err = c.callNative(fn); err != nil {
		c.logger.Warn("query error after reconnect", zap.String("sql", sql), zap.Error(err))
		return newQueryError(sql, err)
	}
	return nil
}

func (c *Connection) callNative(fn func(native NativeConn) error) error {
	failpoint.Inject("mockConnectionLost", func() {
		failpoint.Return(errors.Trace(mysql.ErrBadConn))
	})
	return fn(c.native)
}

// reconnectLocked replaces the native handle and re-prepares every mirrored
// statement on the new one.
func (c *Connection) reconnectLocked() error {
	c.reconnects.Add(1)
	c.closeNativeLocked()

	native, err := c.dialer(context.Background(), c.cfg)
	if err != nil {
		metrics.DatabaseReconnectCounter.WithLabelValues(metrics.RetLabel(err)).Inc()
		c.logger.Error("reconnect to mysql error", zap.String("addr", c.cfg.Addr), zap.Error(err))
		return newConnectionError(c.cfg.Addr, c.cfg.User, err)
	}

	for handle, m := range c.prepared {
		stmt, err := native.Prepare(m.sql)
		if err != nil {
			metrics.DatabaseReconnectCounter.WithLabelValues(metrics.RetLabel(err)).Inc()
			c.logger.Error("re-prepare statement error", zap.Uint64("stmt", handle.ID()), zap.Error(err))
			if cerr := native.Close(); cerr != nil {
				c.logger.Warn("close native conn error", zap.Error(cerr))
			}
			return errors.Annotatef(err, "re-prepare statement %d", handle.ID())
		}
		m.stmt = stmt
	}

	c.native = native
	metrics.DatabaseReconnectCounter.WithLabelValues(metrics.RetLabel(nil)).Inc()
	c.logger.Info("reconnected to mysql", zap.String("addr", c.cfg.Addr))
	return nil
}

// prepare mirrors a registry statement on this connection. It is a no-op if
// the handle is already mirrored, and fails once the connection is closing.
func (c *Connection) prepare(handle StatementHandle, sql string) error {
	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	c.pool.mu.Lock()
	running := c.running
	c.pool.mu.Unlock()
	if !running {
		return errors.Trace(ErrPoolClosed)
	}

	if _, ok := c.prepared[handle]; ok {
		return nil
	}

	var stmt NativeStmt
	err := c.withNativeLocked(sql, func(native NativeConn) error {
		var err error
		stmt, err = native.Prepare(sql)
		return err
	})
	if err != nil {
		return err
	}
	c.prepared[handle] = &mirroredStmt{sql: sql, stmt: stmt}
	return nil
}

// unprepare drops the mirror of handle. Closing the native statement is
// best effort.
func (c *Connection) unprepare(handle StatementHandle) {
	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	m, ok := c.prepared[handle]
	if !ok {
		return
	}
	delete(c.prepared, handle)
	if m.stmt == nil {
		return
	}
	if err := m.stmt.Close(); err != nil {
		c.logger.Warn("close prepared statement error", zap.Uint64("stmt", handle.ID()), zap.Error(err))
	}
}

func (c *Connection) hasStatement(handle StatementHandle) bool {
	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	_, ok := c.prepared[handle]
	return ok
}

// close stops the worker, waits for it and closes the native handle. The
// pool must have drained before close is called.
func (c *Connection) close() error {
	c.pool.stopWorker(c)
	<-c.exited

	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	for _, m := range c.prepared {
		if m.stmt == nil {
			continue
		}
		if err := m.stmt.Close(); err != nil {
			c.logger.Debug("close prepared statement error", zap.Error(err))
		}
		m.stmt = nil
	}
	c.prepared = make(map[StatementHandle]*mirroredStmt)

	if c.native == nil {
		return nil
	}
	err := c.native.Close()
	c.native = nil
	if err != nil {
		return errors.Annotatef(err, "close mysql conn %d", c.id)
	}
	return nil
}

// closeNativeLocked drops the native handle and the native statements bound
// to it. Mirrored SQL is kept so reconnect can re-prepare it.
func (c *Connection) closeNativeLocked() {
	for _, m := range c.prepared {
		m.stmt = nil
	}
	if c.native == nil {
		return
	}
	if err := c.native.Close(); err != nil {
		c.logger.Debug("close lost mysql conn error", zap.Error(err))
	}
	c.native = nil
}
