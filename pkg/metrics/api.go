package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleGamesBot,
			Subsystem: LabelAPI,
			Name:      "request_total",
			Help:      "Counter of admin api requests.",
		}, []string{LblMethod, LblPath, LblCode})
)
