package database

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/opentracing/opentracing-go"
	"github.com/pingcap/errors"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/metrics"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type poolState int

const (
	poolIdle poolState = iota
	poolStarting
	poolRunning
	poolDraining
	poolStopped
)

// Pool is a fixed-size set of MySQL connections with a shared dispatch
// queue, a FIFO background queue and a pool-wide prepared statement
// registry. It is safe for concurrent use.
type Pool struct {
	cfg    Config
	logger *zap.Logger
	dialer Dialer

	claimTimeout    time.Duration
	claimTimeoutSet bool

	mu         sync.Mutex
	state      poolState
	conns      []*Connection
	pending    []*request
	background []*backgroundJob
	inflight   int
	bgClosed   bool
	queueCond  *sync.Cond // pending not empty, or a worker must exit
	bgCond     *sync.Cond // background not empty, or closed
	drained    *sync.Cond // inflight reached zero

	registry *registry

	runDone  chan struct{} // closed when the current Run returns
	bgExited chan struct{}
	stopped  chan struct{}
	stopErr  error
}

// NewPool creates a pool. No connection is opened before Run.
func NewPool(cfg Config, logger *zap.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		cfg:      cfg,
		logger:   logger,
		dialer:   DialMySQL,
		registry: newRegistry(),
		bgExited: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	p.queueCond = sync.NewCond(&p.mu)
	p.bgCond = sync.NewCond(&p.mu)
	p.drained = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run opens mysql_connections_amount connections and starts their workers
// and the background worker. Any connection failure is returned and no
// connection is left open.
func (p *Pool) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.state != poolIdle {
		p.mu.Unlock()
		return errors.New("database pool already started")
	}
	p.state = poolStarting
	p.runDone = make(chan struct{})
	p.mu.Unlock()

	metrics.DatabaseEventCounter.WithLabelValues(metrics.DatabaseEventStarting).Inc()
	conns, err := p.openConnections(ctx)
	if err != nil {
		p.mu.Lock()
		stopped := p.state != poolStarting
		if !stopped {
			p.state = poolIdle
		}
		close(p.runDone)
		p.mu.Unlock()
		if !stopped {
			p.logger.Error("database pool start failed", zap.Bool("fatal", true), zap.Error(err))
		}
		return err
	}

	p.logger.Info("database pool started", zap.Int("connections", len(conns)), zap.Duration("claim_timeout", p.claimTimeout))
	metrics.DatabaseEventCounter.WithLabelValues(metrics.DatabaseEventStarted).Inc()
	go p.backgroundLoop()
	p.mu.Lock()
	close(p.runDone)
	p.mu.Unlock()
	return nil
}

func (p *Pool) openConnections(ctx context.Context) ([]*Connection, error) {
	amountStr := p.cfg.GetValueOr(KeyMySQLConnectionsAmount, defaultConnectionsAmount)
	amount, err := strconv.Atoi(amountStr)
	if err != nil || amount <= 0 {
		return nil, errors.Annotatef(ErrInvalidPoolSize, "%s = %q", KeyMySQLConnectionsAmount, amountStr)
	}

	if !p.claimTimeoutSet {
		timeoutStr := p.cfg.GetValueOr(KeyMySQLClaimTimeout, defaultClaimTimeout)
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, errors.Annotatef(err, "parse %s", KeyMySQLClaimTimeout)
		}
		p.claimTimeout = timeout
	}

	// Statement CRUD waits until the new connections are visible, so every
	// registered statement ends up prepared on them.
	p.registry.mu.RLock()
	defer p.registry.mu.RUnlock()
	statements := p.registry.snapshotLocked()

	conns := make([]*Connection, amount)
	g, gctx := errgroup.WithContext(ctx)
	for i := range conns {
		i := i
		g.Go(func() error {
			c := newConnection(i, p)
			if err := c.connect(gctx, statements); err != nil {
				return err
			}
			conns[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, c := range conns {
			if c == nil {
				continue
			}
			c.nativeMu.Lock()
			c.closeNativeLocked()
			c.nativeMu.Unlock()
		}
		return nil, err
	}

	p.mu.Lock()
	if p.state != poolStarting {
		p.mu.Unlock()
		for _, c := range conns {
			c.nativeMu.Lock()
			c.closeNativeLocked()
			c.nativeMu.Unlock()
		}
		return nil, errors.Trace(ErrPoolClosed)
	}
	p.conns = conns
	for _, c := range conns {
		c.running = true
		c.start()
	}
	p.state = poolRunning
	p.mu.Unlock()
	return conns, nil
}

// Execute accepts sql for execution and returns its pending result.
func (p *Pool) Execute(ctx context.Context, sql string) *Task[Rows] {
	return p.dispatch(ctx, newQueryRequest(sql))
}

func (p *Pool) dispatch(ctx context.Context, r *request) *Task[Rows] {
	if err := p.acquire(true); err != nil {
		return Failed[Rows](err)
	}

	span, _ := opentracing.StartSpanFromContext(ctx, "database.execute")
	span.SetTag("db.type", "mysql")
	span.SetTag("db.statement", r.sql)
	span.SetTag("request.id", r.id)
	r.span = span

	if p.claimTimeout > 0 {
		timer := time.AfterFunc(p.claimTimeout, func() {
			if r.abandon(errors.Trace(ErrPoolExhausted)) {
				metrics.DatabasePoolExhaustedCounter.Inc()
				p.logger.Warn("query abandoned, no free connection", zap.String("request", r.id),
					zap.Duration("claim_timeout", p.claimTimeout))
				p.finishRequest(r, nil, ErrPoolExhausted)
			}
		})
		r.onSettle(timer.Stop)
	}
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			if r.abandon(ctx.Err()) {
				p.finishRequest(r, nil, ctx.Err())
			}
		})
		r.onSettle(stop)
	}

	r.enqueued = time.Now()
	p.mu.Lock()
	p.pending = append(p.pending, r)
	metrics.DatabasePendingGauge.Set(float64(len(p.pending)))
	p.mu.Unlock()
	p.queueCond.Broadcast()

	return r.task
}

// acquire counts one unit of work as in flight.
func (p *Pool) acquire(query bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case poolIdle, poolStarting:
		return errors.Trace(ErrPoolNotRunning)
	case poolStopped:
		return errors.Trace(ErrPoolClosed)
	case poolDraining:
		if !query {
			return errors.Trace(ErrPoolClosed)
		}
	}
	p.inflight++
	metrics.DatabaseInflightGauge.Set(float64(p.inflight))
	return nil
}

func (p *Pool) releaseInflight() {
	p.mu.Lock()
	p.inflight--
	metrics.DatabaseInflightGauge.Set(float64(p.inflight))
	if p.inflight == 0 {
		p.drained.Broadcast()
	}
	p.mu.Unlock()
}

// nextRequest blocks until a request is claimed for c, or c must exit.
func (p *Pool) nextRequest(c *Connection) (*request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		for len(p.pending) > 0 {
			r := p.pending[0]
			p.pending[0] = nil
			p.pending = p.pending[1:]
			metrics.DatabasePendingGauge.Set(float64(len(p.pending)))
			if !r.claim() {
				continue
			}
			c.busy = true
			metrics.DatabaseConnInUseGauge.Set(float64(p.busyLocked()))
			return r, true
		}
		if !c.running {
			return nil, false
		}
		p.queueCond.Wait()
	}
}

func (p *Pool) release(c *Connection) {
	p.mu.Lock()
	c.busy = false
	metrics.DatabaseConnInUseGauge.Set(float64(p.busyLocked()))
	p.mu.Unlock()
}

func (p *Pool) stopWorker(c *Connection) {
	p.mu.Lock()
	c.running = false
	p.mu.Unlock()
	p.queueCond.Broadcast()
}

func (p *Pool) busyLocked() int {
	return lo.CountBy(p.conns, func(c *Connection) bool { return c.busy })
}

// settle resolves a request a connection has run.
func (p *Pool) settle(r *request, rows Rows, err error) {
	r.finish(rows, err)
	p.finishRequest(r, rows, err)
}

func (p *Pool) finishRequest(r *request, rows Rows, err error) {
	metrics.DatabaseQueryCounter.WithLabelValues(r.kind(), metrics.RetLabel(err)).Inc()
	if r.span != nil {
		if err != nil {
			r.span.SetTag("error", true)
			r.span.SetTag("error.message", err.Error())
		} else {
			r.span.SetTag("db.rows", len(rows))
		}
		r.span.Finish()
	}
	p.releaseInflight()
}

// Stop stops accepting background work, waits until every accepted query
// finished, then closes all connections and clears the statement registry.
func (p *Pool) Stop() error {
	p.mu.Lock()
	switch p.state {
	case poolIdle, poolStarting:
		starting := p.state == poolStarting
		runDone := p.runDone
		p.state = poolStopped
		p.mu.Unlock()
		if starting {
			// Run closes whatever it dialed once it sees the stopped state.
			<-runDone
		}
		close(p.bgExited)
		close(p.stopped)
		return nil
	case poolDraining, poolStopped:
		p.mu.Unlock()
		<-p.stopped
		return p.stopErr
	}

	p.state = poolDraining
	p.bgClosed = true
	p.bgCond.Broadcast()
	metrics.DatabaseEventCounter.WithLabelValues(metrics.DatabaseEventDraining).Inc()
	p.logger.Info("database pool draining", zap.Int("inflight", p.inflight), zap.Int("background", len(p.background)))

	for p.inflight > 0 {
		p.drained.Wait()
	}
	p.state = poolStopped
	conns := p.conns
	p.mu.Unlock()

	<-p.bgExited

	var result *multierror.Error
	for _, c := range conns {
		if err := c.close(); err != nil {
			p.logger.Error("close mysql conn error", zap.Int("conn", c.id), zap.Error(err))
			result = multierror.Append(result, err)
		}
	}
	p.registry.clear()
	metrics.DatabaseStatementGauge.Set(0)
	metrics.DatabaseEventCounter.WithLabelValues(metrics.DatabaseEventStopped).Inc()
	p.logger.Info("database pool stopped")

	p.stopErr = result.ErrorOrNil()
	close(p.stopped)
	return p.stopErr
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	Connections int         `json:"connections"`
	Busy        int         `json:"busy"`
	Pending     int         `json:"pending"`
	Background  int         `json:"background"`
	Inflight    int         `json:"inflight"`
	Statements  int         `json:"statements"`
	Conns       []ConnStats `json:"conns"`
}

// ConnStats describes one connection.
type ConnStats struct {
	ID         int   `json:"id"`
	Busy       bool  `json:"busy"`
	Queries    int64 `json:"queries"`
	Reconnects int64 `json:"reconnects"`
}

// Stats reports the current pool occupancy.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	stats := PoolStats{
		Connections: len(p.conns),
		Busy:        p.busyLocked(),
		Background:  len(p.background),
		Inflight:    p.inflight,
	}
	stats.Pending = lo.CountBy(p.pending, func(r *request) bool { return r.queued() })
	stats.Conns = lo.Map(p.conns, func(c *Connection, _ int) ConnStats {
		return ConnStats{
			ID:         c.id,
			Busy:       c.busy,
			Queries:    c.queries.Get(),
			Reconnects: c.reconnects.Get(),
		}
	})
	p.mu.Unlock()

	stats.Statements = p.registry.len()
	return stats
}
