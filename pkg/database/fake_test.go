package database

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siddontang/go-mysql/mysql"
)

type fakeExec struct {
	conn int
	sql  string
	args []interface{}
}

// fakeServer is an in-memory stand-in for a MySQL server. Every NativeConn
// it hands out shares its state.
type fakeServer struct {
	mu         sync.Mutex
	dials      int
	closes     int
	dialErr    error
	dialFailAt int // fail the n-th dial (1-based), 0 never
	dialGate   chan struct{}
	results    map[string]Rows
	queryErrs  map[string]error
	prepareErr error
	prepareAt  int // fail the n-th prepare (1-based), 0 never
	prepares   int
	stmtCloses int
	dropNext   int
	executed   []fakeExec
	delay      time.Duration
	gate       chan struct{}

	running    int32
	maxRunning int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		results:   make(map[string]Rows),
		queryErrs: make(map[string]error),
	}
}

func (s *fakeServer) dial(ctx context.Context, cfg *ConnConfig) (NativeConn, error) {
	s.mu.Lock()
	s.dials++
	id, gate := s.dials, s.dialGate
	var err error
	switch {
	case s.dialErr != nil:
		err = s.dialErr
	case s.dialFailAt == id:
		err = &mysql.MyError{Code: 1045, Message: "Access denied for user"}
	}
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &fakeConn{server: s, id: id}, nil
}

func (s *fakeServer) setDialErr(err error) {
	s.mu.Lock()
	s.dialErr = err
	s.mu.Unlock()
}

func (s *fakeServer) setGate(gate chan struct{}) {
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
}

func (s *fakeServer) dropConnections(n int) {
	s.mu.Lock()
	s.dropNext = n
	s.mu.Unlock()
}

func (s *fakeServer) executions(sql string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.executed {
		if e.sql == sql {
			n++
		}
	}
	return n
}

func (s *fakeServer) executedSQL() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.executed))
	for _, e := range s.executed {
		out = append(out, e.sql)
	}
	return out
}

func (s *fakeServer) argsOf(sql string) [][]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out [][]interface{}
	for _, e := range s.executed {
		if e.sql == sql {
			out = append(out, e.args)
		}
	}
	return out
}

func (s *fakeServer) lastExec() fakeExec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executed[len(s.executed)-1]
}

func (s *fakeServer) stats() (dials, closes, prepares int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials, s.closes, s.prepares
}

func (s *fakeServer) exec(c *fakeConn, sql string, args []interface{}) (Rows, error) {
	n := atomic.AddInt32(&s.running, 1)
	defer atomic.AddInt32(&s.running, -1)
	for {
		max := atomic.LoadInt32(&s.maxRunning)
		if n <= max || atomic.CompareAndSwapInt32(&s.maxRunning, max, n) {
			break
		}
	}

	s.mu.Lock()
	gate, delay := s.gate, s.delay
	if c.closed {
		s.mu.Unlock()
		return nil, mysql.ErrBadConn
	}
	if s.dropNext > 0 {
		s.dropNext--
		c.closed = true
		s.mu.Unlock()
		return nil, mysql.ErrBadConn
	}
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.executed = append(s.executed, fakeExec{conn: c.id, sql: sql, args: args})
	if err, ok := s.queryErrs[sql]; ok {
		return nil, err
	}
	if rows, ok := s.results[sql]; ok {
		return rows, nil
	}
	return placeholderRows(), nil
}

type fakeConn struct {
	server *fakeServer
	id     int
	closed bool
}

func (c *fakeConn) Execute(sql string, args ...interface{}) (Rows, error) {
	return c.server.exec(c, sql, args)
}

func (c *fakeConn) Prepare(sql string) (NativeStmt, error) {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.closed {
		return nil, mysql.ErrBadConn
	}
	s.prepares++
	if s.prepareErr != nil && (s.prepareAt == 0 || s.prepareAt == s.prepares) {
		return nil, s.prepareErr
	}
	return &fakeStmt{conn: c, sql: sql}, nil
}

func (c *fakeConn) Close() error {
	c.server.mu.Lock()
	c.server.closes++
	c.closed = true
	c.server.mu.Unlock()
	return nil
}

type fakeStmt struct {
	conn *fakeConn
	sql  string
}

func (s *fakeStmt) Execute(args ...interface{}) (Rows, error) {
	return s.conn.server.exec(s.conn, s.sql, args)
}

func (s *fakeStmt) Close() error {
	s.conn.server.mu.Lock()
	s.conn.server.stmtCloses++
	s.conn.server.mu.Unlock()
	return nil
}
