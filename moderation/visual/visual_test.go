package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Neil2813/Content-Room/moderation/analysis"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComputeStatsSolidColors(t *testing.T) {
	assert := assert.New(t)

	skin := ComputeStats(solidImage(40, 40, color.RGBA{R: 224, G: 172, B: 105, A: 255}))
	assert.Greater(skin.Skin, 0.9)
	assert.Less(skin.Green, 0.1)

	grass := ComputeStats(solidImage(40, 40, color.RGBA{R: 34, G: 139, B: 34, A: 255}))
	assert.Greater(grass.Green, 0.9)
	assert.Less(grass.Skin, 0.1)

	black := ComputeStats(solidImage(40, 40, color.RGBA{A: 255}))
	assert.Greater(black.Dark, 0.9)
}

func TestDecodeStatsBadPayload(t *testing.T) {
	assert := assert.New(t)

	_, _, err := DecodeStats([]byte("definitely not an image"))
	assert.Error(err)
}

func TestColorHeuristicNatureIsSafe(t *testing.T) {
	assert := assert.New(t)

	data := encodePNG(t, solidImage(64, 64, color.RGBA{R: 34, G: 139, B: 34, A: 255}))
	res, err := ColorHeuristic{}.AnalyzeImage(context.Background(), data)
	assert.NoError(err)
	assert.Equal(100.0, res.SafetyScore)
	assert.Empty(res.Flags)
	assert.Equal("color_heuristic", res.Provider)
}

func TestColorHeuristicSkinIsSuggestive(t *testing.T) {
	assert := assert.New(t)

	data := encodePNG(t, solidImage(64, 64, color.RGBA{R: 224, G: 172, B: 105, A: 255}))
	res, err := ColorHeuristic{}.AnalyzeImage(context.Background(), data)
	assert.NoError(err)
	assert.Equal(70.0, res.SafetyScore)
	assert.Contains(res.Flags, "suggestive")
}

func TestColorHeuristicDarkRedIsViolent(t *testing.T) {
	assert := assert.New(t)

	// mostly near-black with a strong red band, no green
	img := solidImage(64, 64, color.RGBA{R: 20, G: 5, B: 5, A: 255})
	for y := 0; y < 16; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	res, err := ColorHeuristic{}.AnalyzeImage(context.Background(), encodePNG(t, img))
	assert.NoError(err)
	assert.Contains(res.Flags, "violence")
	assert.Equal(60.0, res.SafetyScore)
}

func TestColorHeuristicDecodeError(t *testing.T) {
	assert := assert.New(t)

	_, err := ColorHeuristic{}.AnalyzeImage(context.Background(), []byte("junk"))
	assert.Error(err)
	var de *analysis.DecodeError
	assert.ErrorAs(err, &de)
}

func TestVisionLMClient(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("POST", r.Method)
		assert.Equal("/v1/vision/analyze", r.URL.Path)
		assert.Equal("Bearer test-token", r.Header.Get("Authorization"))
		assert.NoError(r.ParseMultipartForm(1 << 20))
		assert.NotEmpty(r.FormValue("prompt"))

		json.NewEncoder(w).Encode(VisionLMResp{
			Output: "SAFETY_SCORE: 25\nFLAGS: violence, weapons\nEXPLANATION: battlefield scene",
		})
	}))
	defer srv.Close()

	vc := NewVisionLMClient(srv.URL, "test-token", "")
	res, err := vc.AnalyzeImage(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47})
	assert.NoError(err)
	assert.Equal(25.0, res.SafetyScore)
	assert.Equal([]string{"violence", "weapons"}, res.Flags)
	assert.Equal("vision_lm", res.Provider)
}

func TestVisionLMClientMalformedOutput(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(VisionLMResp{Output: "I cannot analyze this image, sorry."})
	}))
	defer srv.Close()

	vc := NewVisionLMClient(srv.URL, "", "")
	res, err := vc.AnalyzeImage(context.Background(), []byte("img"))
	assert.NoError(err)
	assert.Equal(75.0, res.SafetyScore)
	assert.Contains(res.Flags, "analysis_unavailable")
}

func TestVisionLMClientUnavailable(t *testing.T) {
	assert := assert.New(t)

	vc := NewVisionLMClient("", "", "")
	assert.False(vc.Available())
	_, err := vc.AnalyzeImage(context.Background(), []byte("img"))
	assert.ErrorIs(err, analysis.ErrProviderUnavailable)
}

func TestNSFWNetUnavailableWithoutBundle(t *testing.T) {
	assert := assert.New(t)

	n := NewNSFWNet(t.TempDir(), 2)
	assert.False(n.Available())
	_, err := n.AnalyzeImage(context.Background(), []byte("img"))
	assert.ErrorIs(err, analysis.ErrProviderUnavailable)
}

func TestRekognitionUnavailableWithoutCreds(t *testing.T) {
	assert := assert.New(t)

	ra := NewRekognitionAnalyzer("us-east-1", "", "", 5)
	assert.False(ra.Available())
	_, err := ra.AnalyzeImage(context.Background(), nil)
	assert.ErrorIs(err, analysis.ErrProviderUnavailable)
}
