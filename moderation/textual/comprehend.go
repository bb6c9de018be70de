package textual

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/comprehend"
	"golang.org/x/time/rate"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/keyword"
)

// comprehendFlagThreshold: toxicity labels scored above this become flags.
const comprehendFlagThreshold = 0.5

// ComprehendAnalyzer scores text with AWS Comprehend toxic content
// detection. Safety is the inverse of aggregate toxicity.
type ComprehendAnalyzer struct {
	Client  *comprehend.Comprehend
	Limiter *rate.Limiter
}

var _ analysis.TextAnalyzer = (*ComprehendAnalyzer)(nil)

// NewComprehendAnalyzer returns a disabled analyzer (Available() false) when
// credentials are missing, so wiring code can register it unconditionally.
func NewComprehendAnalyzer(region, accessKey, secretKey string, rps float64) *ComprehendAnalyzer {
	ca := &ComprehendAnalyzer{}
	if rps <= 0 {
		rps = 5
	}
	ca.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	if accessKey == "" || secretKey == "" {
		return ca
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		slog.Warn("failed to initialize AWS session, Comprehend disabled", "err", err)
		return ca
	}
	ca.Client = comprehend.New(sess)
	return ca
}

func (ca *ComprehendAnalyzer) Name() string {
	return "aws_comprehend"
}

func (ca *ComprehendAnalyzer) Available() bool {
	return ca.Client != nil
}

func (ca *ComprehendAnalyzer) AnalyzeText(ctx context.Context, text string) (*analysis.ProviderResult, error) {
	if ca.Client == nil {
		return nil, analysis.ErrProviderUnavailable
	}
	if err := ca.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		comprehendAPIDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := ca.Client.DetectToxicContentWithContext(ctx, &comprehend.DetectToxicContentInput{
		LanguageCode: aws.String("en"),
		TextSegments: []*comprehend.TextSegment{
			{Text: aws.String(text)},
		},
	})
	if err != nil {
		comprehendAPICount.WithLabelValues("error").Inc()
		return nil, &analysis.ProviderError{Provider: ca.Name(), Err: err}
	}
	comprehendAPICount.WithLabelValues("ok").Inc()

	var flags []string
	var toxicity float64
	labelScores := map[string]float64{}
	for _, seg := range resp.ResultList {
		if t := aws.Float64Value(seg.Toxicity); t > toxicity {
			toxicity = t
		}
		for _, l := range seg.Labels {
			name := aws.StringValue(l.Name)
			score := aws.Float64Value(l.Score)
			labelScores[keyword.SlugifyLabel(name)] = score
			if score > comprehendFlagThreshold {
				flags = append(flags, keyword.SlugifyLabel(name))
			}
		}
	}

	return &analysis.ProviderResult{
		SafetyScore: analysis.InvertRisk(toxicity),
		Flags:       analysis.NormalizeFlags(flags),
		Confidence:  0.9,
		Provider:    ca.Name(),
		Metadata: map[string]any{
			"toxicity":     toxicity,
			"label_scores": labelScores,
		},
	}, nil
}
