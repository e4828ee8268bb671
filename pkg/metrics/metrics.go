package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ModuleGamesBot = "gamesbot"
)

// metrics labels.
const (
	LabelDatabase = "database"
	LabelAPI      = "api"

	opSucc   = "ok"
	opFailed = "err"
)

// RetLabel returns "ok" when err == nil and "err" when err != nil.
// This could be useful when you need to observe the operation result.
func RetLabel(err error) string {
	if err == nil {
		return opSucc
	}
	return opFailed
}

// RegisterMetrics registers every collector with the default registry.
// It must be called at most once per process.
func RegisterMetrics() {
	prometheus.MustRegister(DatabaseEventCounter)
	prometheus.MustRegister(DatabaseInflightGauge)
	prometheus.MustRegister(DatabasePendingGauge)
	prometheus.MustRegister(DatabaseBackgroundGauge)
	prometheus.MustRegister(DatabaseConnInUseGauge)
	prometheus.MustRegister(DatabaseQueryCounter)
	prometheus.MustRegister(DatabaseQueryDurationHistogram)
	prometheus.MustRegister(DatabaseClaimWaitHistogram)
	prometheus.MustRegister(DatabaseReconnectCounter)
	prometheus.MustRegister(DatabasePoolExhaustedCounter)
	prometheus.MustRegister(DatabaseBackgroundFailureCounter)
	prometheus.MustRegister(DatabaseStatementGauge)

	prometheus.MustRegister(APIRequestCounter)
}
