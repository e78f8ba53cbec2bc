package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Keys for browserstore metrics.
const (
	Fail = "fail"
	Ok   = "ok"

	OpPrepare = "prepare"
	OpStep    = "step"

	Commit   = "commit"
	Rollback = "rollback"
)

// Collectors for sqldb.Database, sqldb.Query and sqldb.Registry.
var (
	SQLRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browserstore_sqldb_retries_total",
		Help: "Cumulative number of busy or locked results which were retried, by operation.",
	}, []string{"op"})
	SQLRetriesExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browserstore_sqldb_retries_exhausted_total",
		Help: "Cumulative number of operations which exhausted their retry budget, by operation.",
	}, []string{"op"})
	SQLFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browserstore_sqldb_faults_total",
		Help: "Cumulative number of storage faults returned to callers, by operation and native result code.",
	}, []string{"op", "code"})
	SQLTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browserstore_sqldb_transactions_total",
		Help: "Cumulative number of transaction scopes ended, by outcome (commit or rollback) and status.",
	}, []string{"outcome", "status"})
	SQLStepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "browserstore_sqldb_step_duration_seconds",
		Help:    "Duration of statement steps, including time spent retrying.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 20},
	})
	SQLOpenHandles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "browserstore_sqldb_open_handles",
		Help: "Number of database handles currently held open by registries.",
	})
)

// Collectors for domain stores.
var (
	StoreFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browserstore_store_faults_total",
		Help: "Cumulative number of store operations which failed, by store and operation.",
	}, []string{"store", "op"})
	StoreDisabled = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "browserstore_store_disabled",
		Help: "Set to 1 for stores whose schema bootstrap failed and which are disabled for the session.",
	}, []string{"store"})
)
