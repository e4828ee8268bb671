package database

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/metrics"
)

type requestState int

const (
	requestQueued requestState = iota
	requestRunning
	requestDone
	requestAbandoned
)

// request is the single-flight unit behind one Execute call. Exactly one of
// claim (a connection worker) or abandon (claim timeout, caller context)
// wins the queued state; the winner is the only path that resolves task.
type request struct {
	id       string
	sql      string
	prepared bool
	handle   StatementHandle
	args     []interface{}
	enqueued time.Time

	task *Task[Rows]
	span opentracing.Span

	mu    sync.Mutex
	state requestState
	stops []func() bool
}

func newQueryRequest(sql string) *request {
	return &request{
		id:   uuid.New().String(),
		sql:  sql,
		task: newTask[Rows](),
	}
}

// newStmtRequest binds a copy of args, so the caller may reuse its slice.
func newStmtRequest(handle StatementHandle, sql string, args []interface{}) *request {
	r := newQueryRequest(sql)
	r.prepared = true
	r.handle = handle
	r.args = append([]interface{}(nil), args...)
	return r
}

func (r *request) kind() string {
	if r.prepared {
		return metrics.QueryKindPrepared
	}
	return metrics.QueryKindPlain
}

// onSettle registers a cancel hook run once the request leaves the queue.
func (r *request) onSettle(stop func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != requestQueued {
		stop()
		return
	}
	r.stops = append(r.stops, stop)
}

// claim moves a queued request to running. It fails if the request was
// already abandoned.
func (r *request) claim() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != requestQueued {
		return false
	}
	r.state = requestRunning
	r.stopHooksLocked()
	return true
}

// abandon resolves a still queued request with err.
func (r *request) abandon(err error) bool {
	r.mu.Lock()
	if r.state != requestQueued {
		r.mu.Unlock()
		return false
	}
	r.state = requestAbandoned
	r.stopHooksLocked()
	r.mu.Unlock()

	r.task.complete(nil, err)
	return true
}

// finish resolves a running request.
func (r *request) finish(rows Rows, err error) {
	r.mu.Lock()
	r.state = requestDone
	r.mu.Unlock()

	r.task.complete(rows, err)
}

func (r *request) queued() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == requestQueued
}

func (r *request) stopHooksLocked() {
	for _, stop := range r.stops {
		stop()
	}
	r.stops = nil
}
