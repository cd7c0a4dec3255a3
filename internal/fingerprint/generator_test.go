package fingerprint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleSignals() Signals {
	return Signals{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64)",
		Language:       "fr-FR",
		Platform:       "Linux x86_64",
		ScreenWidth:    1920,
		ScreenHeight:   1080,
		ColorDepth:     24,
		TimezoneOffset: 0,
		CanvasDataURL:  "data:image/png;base64,AAAA",
		GPURenderer:    "Mesa Intel(R) UHD Graphics",
		GPUVendor:      "Intel",
		Plugins:        []string{"pdf-viewer", "chrome-pdf"},
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	g := NewGenerator()

	first := g.Generate(sampleSignals())
	second := g.Generate(sampleSignals())

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestGenerateCachedAcrossDifferingSignals(t *testing.T) {
	g := NewGenerator()

	first := g.Generate(sampleSignals())

	changed := sampleSignals()
	changed.Language = "en-US"
	assert.Equal(t, first, g.Generate(changed), "cached value must be reused without recomputation")
}

func TestClearCacheRecomputes(t *testing.T) {
	g := NewGenerator()

	first := g.Generate(sampleSignals())
	g.ClearCache()
	assert.Equal(t, first, g.Generate(sampleSignals()), "same inputs must yield the same value after reset")

	g.ClearCache()
	changed := sampleSignals()
	changed.UserAgent = "Mozilla/5.0 (Macintosh)"
	assert.NotEqual(t, first, g.Generate(changed))
}

func TestMissingSignalsUseSentinels(t *testing.T) {
	g := NewGenerator()

	value := g.Compute(Signals{})
	assert.NotEmpty(t, value)
	assert.Equal(t, value, g.Compute(Signals{}))
}

func TestPluginOrderDoesNotMatter(t *testing.T) {
	g := NewGenerator()

	a := sampleSignals()
	a.Plugins = []string{"b", "a", "c"}
	b := sampleSignals()
	b.Plugins = []string{"c", "a", "b"}

	assert.Equal(t, g.Compute(a), g.Compute(b))
}

func TestDigestFailureFallsBackToRollingHash(t *testing.T) {
	g := NewGenerator()
	g.hash = func(string) (string, error) { return "", errors.New("digest unavailable") }

	value := g.Generate(sampleSignals())
	assert.Len(t, value, 8, "fallback renders a 32-bit hash as hex")

	g.ClearCache()
	assert.Equal(t, value, g.Generate(sampleSignals()))
}
