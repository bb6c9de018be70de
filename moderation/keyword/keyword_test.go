package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeText(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  []string
	}{
		{text: "", out: []string{}},
		{text: "Hello, โลก!", out: []string{"hello", "โลก"}},
		{text: "Gdańsk", out: []string{"gdansk"}},
		{text: "kill   ALL of them...", out: []string{"kill", "all", "of", "them"}},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, TokenizeText(fix.text))
	}
}

func TestSlugify(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("explicitnudity", Slugify("Explicit Nudity"))
	assert.Equal("graphicviolence", Slugify("Graphic-Violence!"))
	assert.Equal("", Slugify("@-."))
}

func TestSlugifyLabel(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		label string
		out   string
	}{
		{label: "Explicit Nudity", out: "explicit_nudity"},
		{label: "Violence - Graphic", out: "violence_graphic"},
		{label: "HATE_SPEECH", out: "hate_speech"},
		{label: "  Drugs & Tobacco  ", out: "drugs_tobacco"},
		{label: "", out: ""},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, SlugifyLabel(fix.label))
	}
}

func TestTokenInSet(t *testing.T) {
	assert := assert.New(t)

	set := []string{"kill", "attack"}
	assert.True(TokenInSet("kill", set))
	assert.False(TokenInSet("hello", set))
}
