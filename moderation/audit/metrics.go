package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var gormRecordFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_audit_record_failures",
	Help: "Number of audit records that failed to persist",
})
