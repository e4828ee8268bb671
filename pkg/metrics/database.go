package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	DatabaseEventStarting = "starting"
	DatabaseEventStarted  = "started"
	DatabaseEventDraining = "draining"
	DatabaseEventStopped  = "stopped"
)

const (
	QueryKindPlain    = "query"
	QueryKindPrepared = "prepared"
)

var (
	DatabaseEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "pool_event_total",
			Help:      "Counter of connection pool lifecycle events.",
		}, []string{LblEvent})

	DatabaseInflightGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "inflight",
			Help:      "Number of queued, running and backgrounded queries.",
		})

	DatabasePendingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "pending",
			Help:      "Number of queries waiting for a free connection.",
		})

	DatabaseBackgroundGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "background_queue",
			Help:      "Number of fire-and-forget queries waiting in the background queue.",
		})

	DatabaseConnInUseGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "conn_in_use",
			Help:      "Number of connections running a query.",
		})

	DatabaseQueryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "query_total",
			Help:      "Counter of executed queries.",
		}, []string{LblKind, LblResult})

	DatabaseQueryDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "query_duration_seconds",
			Help:      "Bucketed histogram of query execution time (s) on a connection.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 22), // 0.5ms ~ 17min
		}, []string{LblSQLType})

	DatabaseClaimWaitHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "claim_wait_seconds",
			Help:      "Bucketed histogram of time (s) a query waited for a free connection.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 20),
		})

	DatabaseReconnectCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "reconnect_total",
			Help:      "Counter of reconnect attempts after a lost connection.",
		}, []string{LblResult})

	DatabasePoolExhaustedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "pool_exhausted_total",
			Help:      "Counter of queries abandoned because no connection became free in time.",
		})

	DatabaseBackgroundFailureCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "background_failure_total",
			Help:      "Counter of failed fire-and-forget queries.",
		})

	DatabaseStatementGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelDatabase,
			Name:      "prepared_statements",
			Help:      "Number of registered prepared statements.",
		})
)
