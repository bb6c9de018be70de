package visual

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"golang.org/x/time/rate"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/keyword"
)

// minModerationConfidence is passed to Rekognition; labels below it are not
// returned at all.
const minModerationConfidence = 50.0

// RekognitionAnalyzer scores images with AWS Rekognition content moderation.
// Safety is the inverse of the strongest moderation label: an image with a
// 92%-confidence "Explicit Nudity" hit scores 8.
type RekognitionAnalyzer struct {
	Client  *rekognition.Rekognition
	Limiter *rate.Limiter
}

var _ analysis.ImageAnalyzer = (*RekognitionAnalyzer)(nil)

// NewRekognitionAnalyzer returns a disabled analyzer (Available() false) when
// credentials are missing, so wiring code can register it unconditionally.
func NewRekognitionAnalyzer(region, accessKey, secretKey string, rps float64) *RekognitionAnalyzer {
	ra := &RekognitionAnalyzer{}
	if rps <= 0 {
		rps = 5
	}
	ra.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	if accessKey == "" || secretKey == "" {
		return ra
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		slog.Warn("failed to initialize AWS session, Rekognition disabled", "err", err)
		return ra
	}
	ra.Client = rekognition.New(sess)
	return ra
}

func (ra *RekognitionAnalyzer) Name() string {
	return "aws_rekognition"
}

func (ra *RekognitionAnalyzer) Available() bool {
	return ra.Client != nil
}

func (ra *RekognitionAnalyzer) AnalyzeImage(ctx context.Context, data []byte) (*analysis.ProviderResult, error) {
	if ra.Client == nil {
		return nil, analysis.ErrProviderUnavailable
	}
	if err := ra.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		rekognitionAPIDuration.Observe(time.Since(start).Seconds())
	}()

	modResp, err := ra.Client.DetectModerationLabelsWithContext(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &rekognition.Image{Bytes: data},
		MinConfidence: aws.Float64(minModerationConfidence),
	})
	if err != nil {
		rekognitionAPICount.WithLabelValues("error").Inc()
		return nil, &analysis.ProviderError{Provider: ra.Name(), Err: err}
	}
	rekognitionAPICount.WithLabelValues("ok").Inc()

	var flags []string
	var maxConfidence float64
	moderationLabels := make([]map[string]any, 0, len(modResp.ModerationLabels))
	for _, l := range modResp.ModerationLabels {
		name := aws.StringValue(l.Name)
		conf := aws.Float64Value(l.Confidence)
		if conf > maxConfidence {
			maxConfidence = conf
		}
		flags = append(flags, keyword.SlugifyLabel(name))
		moderationLabels = append(moderationLabels, map[string]any{
			"name":       name,
			"confidence": conf,
			"parent":     aws.StringValue(l.ParentName),
		})
	}

	// content labels give reviewers context (eg "Beach", "Person"); failure
	// here is non-fatal since the moderation verdict is already in hand
	var contentLabels []map[string]any
	labelResp, err := ra.Client.DetectLabelsWithContext(ctx, &rekognition.DetectLabelsInput{
		Image:         &rekognition.Image{Bytes: data},
		MaxLabels:     aws.Int64(10),
		MinConfidence: aws.Float64(55),
	})
	if err != nil {
		slog.Debug("Rekognition DetectLabels failed", "err", err)
	} else {
		for _, l := range labelResp.Labels {
			contentLabels = append(contentLabels, map[string]any{
				"name":       aws.StringValue(l.Name),
				"confidence": aws.Float64Value(l.Confidence),
			})
		}
	}

	confidence := maxConfidence / 100
	if len(flags) == 0 {
		// no moderation labels above the floor is itself a confident verdict
		confidence = 0.9
	}

	score := analysis.ClampScore(100 - maxConfidence)
	return &analysis.ProviderResult{
		SafetyScore: score,
		Flags:       analysis.NormalizeFlags(flags),
		Confidence:  confidence,
		Provider:    ra.Name(),
		Metadata: map[string]any{
			"moderation_labels": moderationLabels,
			"content_labels":    contentLabels,
		},
	}, nil
}
