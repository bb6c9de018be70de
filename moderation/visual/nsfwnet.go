package visual

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/onnxutil"
)

const (
	nsfwInputSize = 224

	// classifier output is softmax over [safe, nsfw]
	nsfwExplicitThreshold   = 0.8
	nsfwSuggestiveThreshold = 0.2
)

// ImageNet-style BGR channel means subtracted during preprocessing; must
// match what the model was trained with.
var nsfwChannelMeans = [3]float32{104.0, 117.0, 123.0}

// NSFWNet scores images with a local ONNX NSFW classifier, so image
// moderation keeps working without any cloud credentials. Model load is
// deferred to the first inference; the session itself is single-threaded
// (pre-allocated tensors), so runs are serialized behind a mutex and
// admission is bounded by a semaphore to keep CPU-bound work from stampeding
// under fan-out.
type NSFWNet struct {
	BundleDir string

	loadOnce sync.Once
	loadErr  error

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	mu      sync.Mutex
	sem     *semaphore.Weighted
}

var _ analysis.ImageAnalyzer = (*NSFWNet)(nil)

func NewNSFWNet(bundleDir string, maxConcurrent int64) *NSFWNet {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &NSFWNet{
		BundleDir: bundleDir,
		sem:       semaphore.NewWeighted(maxConcurrent),
	}
}

func (n *NSFWNet) Name() string {
	return "nsfw_net"
}

// Available reports whether the model bundle exists on disk; it never
// triggers the (slow) session load.
func (n *NSFWNet) Available() bool {
	if n.BundleDir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(n.BundleDir, "nsfwnet.onnx"))
	return err == nil
}

func (n *NSFWNet) load() {
	modelPath := filepath.Join(n.BundleDir, "nsfwnet.onnx")
	if err := onnxutil.EnsureRuntime(n.BundleDir); err != nil {
		n.loadErr = err
		return
	}

	inputShape := ort.NewShape(1, 3, nsfwInputSize, nsfwInputSize)
	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		n.loadErr = fmt.Errorf("allocate input tensor: %w", err)
		return
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		n.loadErr = fmt.Errorf("allocate output tensor: %w", err)
		return
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"prob"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		n.loadErr = fmt.Errorf("create onnx session: %w", err)
		return
	}
	n.session = session
	n.input = input
	n.output = output
}

func (n *NSFWNet) AnalyzeImage(ctx context.Context, data []byte) (*analysis.ProviderResult, error) {
	if !n.Available() {
		return nil, analysis.ErrProviderUnavailable
	}
	n.loadOnce.Do(n.load)
	if n.loadErr != nil {
		return nil, &analysis.ProviderError{Provider: n.Name(), Err: n.loadErr}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &analysis.DecodeError{Kind: "image", Err: err}
	}

	if err := n.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer n.sem.Release(1)

	pixels := preprocessNSFW(img)

	start := time.Now()
	n.mu.Lock()
	copy(n.input.GetData(), pixels)
	err = n.session.Run()
	var probs [2]float32
	if err == nil {
		copy(probs[:], n.output.GetData())
	}
	n.mu.Unlock()
	nsfwNetDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		nsfwNetCount.WithLabelValues("error").Inc()
		return nil, &analysis.ProviderError{Provider: n.Name(), Err: fmt.Errorf("onnx run: %w", err)}
	}
	nsfwNetCount.WithLabelValues("ok").Inc()

	safe, nsfw := softmax2(probs[0], probs[1])
	var flags []string
	if nsfw > nsfwExplicitThreshold {
		flags = append(flags, "explicit_nudity")
	} else if nsfw > nsfwSuggestiveThreshold {
		flags = append(flags, "suggestive")
	}

	return &analysis.ProviderResult{
		SafetyScore: analysis.InvertRisk(nsfw),
		Flags:       flags,
		Confidence:  math.Max(safe, nsfw),
		Provider:    n.Name(),
		Metadata: map[string]any{
			"nsfw_probability": nsfw,
		},
	}, nil
}

// preprocessNSFW scales the image to 224x224 and lays it out as planar CHW
// float32 in BGR channel order with per-channel mean subtraction.
func preprocessNSFW(img image.Image) []float32 {
	scaled := image.NewRGBA(image.Rect(0, 0, nsfwInputSize, nsfwInputSize))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := make([]float32, 3*nsfwInputSize*nsfwInputSize)
	plane := nsfwInputSize * nsfwInputSize
	for y := 0; y < nsfwInputSize; y++ {
		for x := 0; x < nsfwInputSize; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			idx := y*nsfwInputSize + x
			out[0*plane+idx] = float32(b>>8) - nsfwChannelMeans[0]
			out[1*plane+idx] = float32(g>>8) - nsfwChannelMeans[1]
			out[2*plane+idx] = float32(r>>8) - nsfwChannelMeans[2]
		}
	}
	return out
}

// softmax2 normalizes a two-logit output; harmless when the model already
// emits probabilities (softmax is idempotent enough for thresholding).
func softmax2(a, b float32) (float64, float64) {
	ea := math.Exp(float64(a))
	eb := math.Exp(float64(b))
	sum := ea + eb
	return ea / sum, eb / sum
}
