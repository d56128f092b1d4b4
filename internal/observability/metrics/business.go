package metrics

import "time"

// RecordFlowRun records the outcome and duration of a single flow run.
func RecordFlowRun(flow string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	FlowRunsTotal.WithLabelValues(flow, result).Inc()
	FlowRunDuration.WithLabelValues(flow).Observe(duration.Seconds())
}

// RecordCacheHit records a Cache node lookup that returned fresh data
// without invoking its wrapped subtree.
func RecordCacheHit(flow string) {
	CacheResultsTotal.WithLabelValues(flow, "hit").Inc()
}

// RecordCacheMiss records a Cache node lookup that had to run its wrapped
// subtree, either because the cached entry is stale or absent.
func RecordCacheMiss(flow string) {
	CacheResultsTotal.WithLabelValues(flow, "miss").Inc()
}

// RecordCacheShared records a Cache node lookup that rode a concurrent
// refresh via singleflight rather than triggering its own.
func RecordCacheShared(flow string) {
	CacheResultsTotal.WithLabelValues(flow, "singleflight_shared").Inc()
}

// RecordRetrieveFetchSuccess records a successful Retrieve node per-entry
// content fetch, along with how long it took.
func RecordRetrieveFetchSuccess(duration time.Duration) {
	RetrieveFetchAttemptsTotal.WithLabelValues("success").Inc()
	RetrieveFetchDuration.Observe(duration.Seconds())
}

// RecordRetrieveFetchFailed records a failed Retrieve node per-entry fetch.
func RecordRetrieveFetchFailed(duration time.Duration) {
	RetrieveFetchAttemptsTotal.WithLabelValues("failure").Inc()
	RetrieveFetchDuration.Observe(duration.Seconds())
}

// RecordWebSubVerification records the outcome of a hub challenge
// verification. mode is "subscribe" or "unsubscribe".
func RecordWebSubVerification(mode string, accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	WebSubVerificationsTotal.WithLabelValues(mode, result).Inc()
}

// RecordWebSubPush records an inbound content distribution push by result.
func RecordWebSubPush(result string) {
	WebSubPushesTotal.WithLabelValues(result).Inc()
}

// UpdateFlowsTotal updates the gauge tracking how many flows are registered.
func UpdateFlowsTotal(count int) {
	FlowsTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
