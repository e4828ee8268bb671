package database

import (
	"context"
	"sync"

	"github.com/pingcap/errors"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/metrics"
	"github.com/siddontang/go/sync2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StatementHandle identifies a prepared statement registered on one Pool.
// The zero value is never a valid handle.
type StatementHandle struct {
	id    uint64
	owner *registry
}

// ID returns the numeric id of the handle, unique within its pool.
func (h StatementHandle) ID() uint64 {
	return h.id
}

type stmtEntry struct {
	sql   string
	ready bool
}

type registry struct {
	mu      sync.RWMutex
	entries map[StatementHandle]*stmtEntry
	next    sync2.AtomicInt64
}

func newRegistry() *registry {
	return &registry{entries: make(map[StatementHandle]*stmtEntry)}
}

func (r *registry) add(sql string) StatementHandle {
	h := StatementHandle{id: uint64(r.next.Add(1)), owner: r}

	r.mu.Lock()
	r.entries[h] = &stmtEntry{sql: sql}
	r.mu.Unlock()
	return h
}

func (r *registry) markReady(h StatementHandle) {
	r.mu.Lock()
	if e, ok := r.entries[h]; ok {
		e.ready = true
	}
	r.mu.Unlock()
}

func (r *registry) remove(h StatementHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[h]; !ok {
		return false
	}
	delete(r.entries, h)
	return true
}

// lookup returns the SQL of a registered, fully prepared statement.
func (r *registry) lookup(h StatementHandle) (string, bool) {
	if h.owner != r {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[h]
	if !ok || !e.ready {
		return "", false
	}
	return e.sql, true
}

// snapshotLocked copies every entry, ready or not. The caller holds mu.
func (r *registry) snapshotLocked() map[StatementHandle]string {
	out := make(map[StatementHandle]string, len(r.entries))
	for h, e := range r.entries {
		out[h] = e.sql
	}
	return out
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *registry) clear() {
	r.mu.Lock()
	r.entries = make(map[StatementHandle]*stmtEntry)
	r.mu.Unlock()
}

// connections returns the current connection set; it is empty before Run.
func (p *Pool) connections() ([]*Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == poolDraining || p.state == poolStopped {
		return nil, errors.Trace(ErrPoolClosed)
	}
	return append([]*Connection(nil), p.conns...), nil
}

// CreatePreparedStatement registers sql pool-wide and prepares it on every
// connection before returning. If any connection fails to prepare it, the
// statement is removed everywhere and the error is returned.
func (p *Pool) CreatePreparedStatement(ctx context.Context, sql string) (StatementHandle, error) {
	if _, err := p.connections(); err != nil {
		return StatementHandle{}, err
	}
	h := p.registry.add(sql)

	conns, err := p.connections()
	if err == nil {
		g, _ := errgroup.WithContext(ctx)
		for _, c := range conns {
			c := c
			g.Go(func() error {
				return c.prepare(h, sql)
			})
		}
		err = g.Wait()
	}
	if err != nil {
		p.logger.Error("create prepared statement error", zap.Uint64("stmt", h.ID()), zap.String("sql", sql), zap.Error(err))
		p.registry.remove(h)
		p.unprepareAll(h)
		return StatementHandle{}, err
	}

	p.registry.markReady(h)
	metrics.DatabaseStatementGauge.Set(float64(p.registry.len()))
	p.logger.Debug("prepared statement created", zap.Uint64("stmt", h.ID()), zap.Int("connections", len(conns)))
	return h, nil
}

// RemovePreparedStatement drops handle from the registry and closes it on
// every connection.
func (p *Pool) RemovePreparedStatement(ctx context.Context, handle StatementHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if handle.owner != p.registry || !p.registry.remove(handle) {
		return errors.Trace(ErrStatementNotFound)
	}
	p.unprepareAll(handle)
	metrics.DatabaseStatementGauge.Set(float64(p.registry.len()))
	return nil
}

func (p *Pool) unprepareAll(handle StatementHandle) {
	p.mu.Lock()
	conns := append([]*Connection(nil), p.conns...)
	p.mu.Unlock()

	for _, c := range conns {
		c.unprepare(handle)
	}
}

// ExecutePreparedStatement runs handle with args bound positionally on
// whichever connection claims the request.
func (p *Pool) ExecutePreparedStatement(ctx context.Context, handle StatementHandle, args ...interface{}) *Task[Rows] {
	sql, ok := p.registry.lookup(handle)
	if !ok {
		return Failed[Rows](errors.Trace(ErrStatementNotFound))
	}
	return p.dispatch(ctx, newStmtRequest(handle, sql, args))
}
