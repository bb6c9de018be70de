package visual

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rekognitionAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "moderation_rekognition_api_duration_sec",
	Help: "Duration of AWS Rekognition image moderation API calls",
})

var rekognitionAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_rekognition_api_count",
	Help: "Number of AWS Rekognition image moderation API calls, by outcome",
}, []string{"outcome"})

var nsfwNetDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "moderation_nsfwnet_inference_duration_sec",
	Help: "Duration of local NSFW net inference runs",
})

var nsfwNetCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_nsfwnet_inference_count",
	Help: "Number of local NSFW net inference runs, by outcome",
}, []string{"outcome"})

var visionLMAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "moderation_visionlm_api_duration_sec",
	Help: "Duration of vision-LM image moderation API calls",
})

var visionLMAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_visionlm_api_count",
	Help: "Number of vision-LM image moderation API calls, by HTTP status code",
}, []string{"status"})

var heuristicScanCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_color_heuristic_scan_count",
	Help: "Number of color-heuristic image scans, by outcome",
}, []string{"outcome"})
