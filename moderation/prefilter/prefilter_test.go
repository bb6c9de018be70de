package prefilter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solidPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestScanText(t *testing.T) {
	assert := assert.New(t)
	cfg := DefaultConfig()

	fixtures := []struct {
		text string
		risk Risk
	}{
		{text: "", risk: RiskLow},
		{text: "a lovely day at the beach", risk: RiskLow},
		{text: "I will kill you", risk: RiskMedium},
		{text: "kill and murder, then bomb the place", risk: RiskHigh},
		{text: "KILL Kill kill", risk: RiskHigh},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.risk, cfg.ScanText(fix.text), "text: %q", fix.text)
	}
}

func TestScanImage(t *testing.T) {
	assert := assert.New(t)
	cfg := DefaultConfig()

	skin := solidPNG(t, color.RGBA{R: 224, G: 172, B: 105, A: 255})
	assert.Equal(RiskHigh, cfg.ScanImage(skin))

	grass := solidPNG(t, color.RGBA{R: 34, G: 139, B: 34, A: 255})
	assert.Equal(RiskLow, cfg.ScanImage(grass))

	assert.Equal(RiskUnknown, cfg.ScanImage([]byte("not an image")))
	assert.Equal(RiskUnknown, cfg.ScanImage(nil))
}

func TestLoadConfigMissingFile(t *testing.T) {
	assert := assert.New(t)

	_, err := LoadConfig("/nonexistent/prefilter.yaml")
	assert.Error(err)
}

func TestLoadConfig(t *testing.T) {
	assert := assert.New(t)

	path := t.TempDir() + "/prefilter.yaml"
	raw := []byte("denylist: [contraband]\nhigh_matches: 5\n")
	assert.NoError(os.WriteFile(path, raw, 0o644))

	cfg, err := LoadConfig(path)
	assert.NoError(err)
	assert.Equal([]string{"contraband"}, cfg.Denylist)
	assert.Equal(5, cfg.HighMatches)
	// unset fields keep their defaults
	assert.Equal(0.5, cfg.HighSkinRatio)
	assert.Equal(RiskMedium, cfg.ScanText("moving contraband tonight"))
}
