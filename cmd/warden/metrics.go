package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("warden")

var requestsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_requests_failed",
	Help: "Number of moderation requests that ended in an error response",
})
