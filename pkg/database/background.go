package database

import (
	"context"

	"github.com/agnosticeng/panicsafe"
	"github.com/pingcap/errors"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/metrics"
	"go.uber.org/zap"
)

type backgroundJob struct {
	sql    string
	handle *StatementHandle
	args   []interface{}
}

func (j *backgroundJob) run(ctx context.Context, p *Pool) error {
	if j.handle == nil {
		_, err := p.Execute(ctx, j.sql).Await(ctx)
		return err
	}
	_, err := p.ExecutePreparedStatement(ctx, *j.handle, j.args...).Await(ctx)
	return err
}

// BackgroundExecute queues sql for fire-and-forget execution. Background
// jobs run one at a time in submission order. Failures are only logged.
func (p *Pool) BackgroundExecute(sql string) {
	p.enqueueBackground(&backgroundJob{sql: sql})
}

// BackgroundExecutePreparedStatement queues a prepared statement execution
// the same way BackgroundExecute queues a query.
func (p *Pool) BackgroundExecutePreparedStatement(handle StatementHandle, args ...interface{}) {
	sql, _ := p.registry.lookup(handle)
	p.enqueueBackground(&backgroundJob{sql: sql, handle: &handle, args: append([]interface{}(nil), args...)})
}

func (p *Pool) enqueueBackground(job *backgroundJob) {
	if err := p.acquire(false); err != nil {
		p.logger.Warn("background job dropped", zap.String("sql", job.sql), zap.Error(err))
		metrics.DatabaseBackgroundFailureCounter.Inc()
		return
	}

	p.mu.Lock()
	p.background = append(p.background, job)
	metrics.DatabaseBackgroundGauge.Set(float64(len(p.background)))
	p.mu.Unlock()
	p.bgCond.Signal()
}

func (p *Pool) nextBackground() (*backgroundJob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.background) == 0 {
		if p.bgClosed {
			return nil, false
		}
		p.bgCond.Wait()
	}
	job := p.background[0]
	p.background[0] = nil
	p.background = p.background[1:]
	metrics.DatabaseBackgroundGauge.Set(float64(len(p.background)))
	return job, true
}

func (p *Pool) backgroundLoop() {
	defer close(p.bgExited)

	for {
		job, ok := p.nextBackground()
		if !ok {
			return
		}
		err := panicsafe.Recover(func() error {
			return job.run(context.Background(), p)
		})
		if err != nil {
			metrics.DatabaseBackgroundFailureCounter.Inc()
			p.logger.Error("background job error", zap.String("sql", job.sql), zap.Error(errors.Trace(err)))
		}
		p.releaseInflight()
	}
}
