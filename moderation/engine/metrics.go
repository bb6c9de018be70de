package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_requests",
	Help: "Number of moderation requests, by modality and decision",
}, []string{"modality", "decision"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "moderation_request_duration_sec",
	Help: "End-to-end duration of moderation requests, by modality",
}, []string{"modality"})

var cacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moderation_result_cache_hits",
	Help: "Number of moderation requests served from the result cache",
})
