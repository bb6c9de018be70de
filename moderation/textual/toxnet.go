package textual

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/onnxutil"
)

const toxNetSeqLen = 256

// defaultToxThreshold applies to labels without an entry in thresholds.yaml.
const defaultToxThreshold = 0.5

// ToxNet scores text with a local ONNX multi-label toxicity classifier
// (DistilBERT-style: int64 input_ids/attention_mask in, one logit per label
// out, sigmoid per label). The model bundle directory holds toxnet.onnx,
// label_map.json, thresholds.yaml, and tokenizer/vocab.txt.
type ToxNet struct {
	BundleDir string

	loadOnce sync.Once
	loadErr  error

	session    *ort.AdvancedSession
	tokenizer  *WordPieceTokenizer
	labels     []string
	thresholds map[string]float32

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]

	mu  sync.Mutex
	sem *semaphore.Weighted
}

var _ analysis.TextAnalyzer = (*ToxNet)(nil)

func NewToxNet(bundleDir string, maxConcurrent int64) *ToxNet {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &ToxNet{
		BundleDir: bundleDir,
		sem:       semaphore.NewWeighted(maxConcurrent),
	}
}

func (tn *ToxNet) Name() string {
	return "tox_net"
}

func (tn *ToxNet) Available() bool {
	if tn.BundleDir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(tn.BundleDir, "toxnet.onnx"))
	return err == nil
}

func (tn *ToxNet) load() {
	if err := onnxutil.EnsureRuntime(tn.BundleDir); err != nil {
		tn.loadErr = err
		return
	}

	labels, err := loadLabelMap(filepath.Join(tn.BundleDir, "label_map.json"))
	if err != nil {
		tn.loadErr = fmt.Errorf("load labels: %w", err)
		return
	}
	thresholds, err := loadThresholds(filepath.Join(tn.BundleDir, "thresholds.yaml"))
	if err != nil {
		tn.loadErr = fmt.Errorf("load thresholds: %w", err)
		return
	}
	tokenizer, err := LoadWordPieceTokenizer(filepath.Join(tn.BundleDir, "tokenizer", "vocab.txt"))
	if err != nil {
		tn.loadErr = fmt.Errorf("load tokenizer: %w", err)
		return
	}

	inputShape := ort.NewShape(1, int64(toxNetSeqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		tn.loadErr = fmt.Errorf("allocate input_ids tensor: %w", err)
		return
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		tn.loadErr = fmt.Errorf("allocate attention_mask tensor: %w", err)
		return
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		tn.loadErr = fmt.Errorf("allocate output tensor: %w", err)
		return
	}

	session, err := ort.NewAdvancedSession(
		filepath.Join(tn.BundleDir, "toxnet.onnx"),
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		tn.loadErr = fmt.Errorf("create onnx session: %w", err)
		return
	}

	tn.session = session
	tn.tokenizer = tokenizer
	tn.labels = labels
	tn.thresholds = thresholds
	tn.inputIDs = inputIDs
	tn.attentionMask = attnMask
	tn.output = output
}

func (tn *ToxNet) AnalyzeText(ctx context.Context, text string) (*analysis.ProviderResult, error) {
	if !tn.Available() {
		return nil, analysis.ErrProviderUnavailable
	}
	tn.loadOnce.Do(tn.load)
	if tn.loadErr != nil {
		return nil, &analysis.ProviderError{Provider: tn.Name(), Err: tn.loadErr}
	}

	if err := tn.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer tn.sem.Release(1)

	inputIDs, attn := tn.tokenizer.Encode(text, toxNetSeqLen)

	start := time.Now()
	tn.mu.Lock()
	copy(tn.inputIDs.GetData(), inputIDs)
	copy(tn.attentionMask.GetData(), attn)
	err := tn.session.Run()
	logits := make([]float32, len(tn.labels))
	if err == nil {
		copy(logits, tn.output.GetData())
	}
	tn.mu.Unlock()
	toxNetDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		toxNetCount.WithLabelValues("error").Inc()
		return nil, &analysis.ProviderError{Provider: tn.Name(), Err: fmt.Errorf("onnx run: %w", err)}
	}
	toxNetCount.WithLabelValues("ok").Inc()

	var flags []string
	var maxScore float64
	scores := make(map[string]float64, len(tn.labels))
	for i, logit := range logits {
		label := tn.labels[i]
		score := 1.0 / (1.0 + math.Exp(-float64(logit)))
		scores[label] = score
		if score > maxScore {
			maxScore = score
		}
		threshold := float64(defaultToxThreshold)
		if th, ok := tn.thresholds[label]; ok {
			threshold = float64(th)
		}
		if score >= threshold {
			flags = append(flags, label)
		}
	}

	return &analysis.ProviderResult{
		SafetyScore: analysis.InvertRisk(maxScore),
		Flags:       analysis.NormalizeFlags(flags),
		Confidence:  math.Max(maxScore, 1-maxScore),
		Provider:    tn.Name(),
		Metadata: map[string]any{
			"label_scores": scores,
		},
	}, nil
}

// loadLabelMap accepts either a JSON array of labels or an index-to-label
// object ({"0": "toxicity", ...}).
func loadLabelMap(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	out := make([]string, len(m))
	for k, v := range m {
		idx, convErr := strconv.Atoi(k)
		if convErr != nil {
			return nil, fmt.Errorf("invalid label index %q: %w", k, convErr)
		}
		if idx < 0 || idx >= len(m) {
			return nil, fmt.Errorf("label index %d out of range", idx)
		}
		out[idx] = v
	}
	return out, nil
}

func loadThresholds(path string) (map[string]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]float32{}, nil
		}
		return nil, err
	}

	var wrapper struct {
		Thresholds map[string]float32 `yaml:"thresholds"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Thresholds == nil {
		wrapper.Thresholds = make(map[string]float32)
	}
	return wrapper.Thresholds, nil
}
