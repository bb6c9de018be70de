package moderation

import (
	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/decision"
	"github.com/Neil2813/Content-Room/moderation/engine"
	"github.com/Neil2813/Content-Room/moderation/prefilter"
)

type Engine = engine.Engine
type Result = engine.Result
type Part = engine.Part
type TranscriptDetail = engine.TranscriptDetail
type VideoDetail = engine.VideoDetail

type ProviderResult = analysis.ProviderResult
type TextAnalyzer = analysis.TextAnalyzer
type ImageAnalyzer = analysis.ImageAnalyzer

type Decision = decision.Decision
type Modality = analysis.Modality

var (
	DecisionAllow    = decision.Allow
	DecisionFlag     = decision.Flag
	DecisionEscalate = decision.Escalate

	ModalityText  = analysis.ModalityText
	ModalityImage = analysis.ModalityImage
	ModalityAudio = analysis.ModalityAudio
	ModalityVideo = analysis.ModalityVideo

	RiskLow     = prefilter.RiskLow
	RiskMedium  = prefilter.RiskMedium
	RiskHigh    = prefilter.RiskHigh
	RiskUnknown = prefilter.RiskUnknown
)
