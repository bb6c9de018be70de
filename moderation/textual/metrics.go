package textual

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var comprehendAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "moderation_comprehend_api_duration_sec",
	Help: "Duration of AWS Comprehend toxicity API calls",
})

var comprehendAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_comprehend_api_count",
	Help: "Number of AWS Comprehend toxicity API calls, by outcome",
}, []string{"outcome"})

var toxNetDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "moderation_toxnet_inference_duration_sec",
	Help: "Duration of local toxicity net inference runs",
})

var toxNetCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_toxnet_inference_count",
	Help: "Number of local toxicity net inference runs, by outcome",
}, []string{"outcome"})

var llmTextAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "moderation_llm_text_api_duration_sec",
	Help: "Duration of generative-LLM text moderation calls",
})

var llmTextAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_llm_text_api_count",
	Help: "Number of generative-LLM text moderation calls, by generator and outcome",
}, []string{"generator", "outcome"})
