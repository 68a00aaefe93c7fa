package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncPullsTotal counts incremental and full pulls by entity and result.
	SyncPullsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studygram_sync_pulls_total",
		Help: "Total number of sync pulls by entity and result",
	}, []string{"entity", "mode", "result"})

	// RemotePushesTotal counts remote writes by entity and result.
	RemotePushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studygram_remote_pushes_total",
		Help: "Total number of remote pushes by entity and result",
	}, []string{"entity", "result"})

	// OptimisticRollbacksTotal counts local rows rolled back after a failed
	// remote write.
	OptimisticRollbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studygram_optimistic_rollbacks_total",
		Help: "Total number of optimistic local writes rolled back",
	}, []string{"entity"})

	// UploadPipelineStagesTotal counts upload pipeline stage outcomes.
	UploadPipelineStagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studygram_upload_pipeline_stages_total",
		Help: "Total upload pipeline stage outcomes by stage and result",
	}, []string{"stage", "result"})

	// SyncCursorTimestamp is the last successful pull cursor in unix millis.
	SyncCursorTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "studygram_sync_cursor_timestamp_millis",
		Help: "Persisted last-successful-pull cursor in unix milliseconds",
	})

	// NetworkAvailable reflects the network monitor's current state.
	NetworkAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "studygram_network_available",
		Help: "Whether the network availability monitor currently reports online (1) or offline (0)",
	})
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)
