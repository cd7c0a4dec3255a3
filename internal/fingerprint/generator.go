// Package fingerprint derives a stable pseudo-identity string from
// client-reported device signals. The result is a weak secondary identity
// signal, not an authentication credential.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Sentinels substituted when a signal source is missing or failed client-side.
const (
	sentinelCanvas  = "canvas_unavailable"
	sentinelGPU     = "webgl_unavailable"
	sentinelPlugins = "no_plugins"
	sentinelSignal  = "unknown"

	separator = "|||"
)

// Signals carries the coarse device/environment readings submitted by the
// browser. Any field may be empty; generation never fails.
type Signals struct {
	UserAgent      string   `json:"user_agent"`
	Language       string   `json:"language"`
	Platform       string   `json:"platform"`
	ScreenWidth    int      `json:"screen_width"`
	ScreenHeight   int      `json:"screen_height"`
	ColorDepth     int      `json:"color_depth"`
	TimezoneOffset int      `json:"timezone_offset"`
	CanvasDataURL  string   `json:"canvas_data_url"`
	GPURenderer    string   `json:"gpu_renderer"`
	GPUVendor      string   `json:"gpu_vendor"`
	Plugins        []string `json:"plugins"`
}

// HashFunc digests the joined signal payload.
type HashFunc func(payload string) (string, error)

// Generator computes and caches a device fingerprint. The cache is owned by
// the generator instance, so each process/session boundary constructs its own.
type Generator struct {
	mu     sync.Mutex
	cached string
	hash   HashFunc
}

func NewGenerator() *Generator {
	return &Generator{hash: sha256Hex}
}

// Generate returns a stable opaque string for the given signals. Repeated
// calls return the cached value without recomputation until ClearCache.
func (g *Generator) Generate(s Signals) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cached != "" {
		return g.cached
	}

	g.cached = g.compute(s)
	return g.cached
}

// Compute derives the fingerprint without touching the cache. Used when a
// caller handles many devices through one generator.
func (g *Generator) Compute(s Signals) string {
	return g.compute(s)
}

// ClearCache resets the cached fingerprint.
func (g *Generator) ClearCache() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cached = ""
}

func (g *Generator) compute(s Signals) string {
	components := []string{
		orDefault(s.UserAgent, sentinelSignal),
		orDefault(s.Language, sentinelSignal),
		orDefault(s.Platform, sentinelSignal),
		fmt.Sprintf("%dx%d", s.ScreenWidth, s.ScreenHeight),
		fmt.Sprintf("depth:%d", s.ColorDepth),
		fmt.Sprintf("tz:%d", s.TimezoneOffset),
		orDefault(s.CanvasDataURL, sentinelCanvas),
		orDefault(s.GPURenderer, sentinelGPU),
		orDefault(s.GPUVendor, sentinelGPU),
		joinPlugins(s.Plugins),
	}

	payload := strings.Join(components, separator)

	hash := g.hash
	if hash != nil {
		if digest, err := hash(payload); err == nil && digest != "" {
			return digest
		}
	}

	// Stability matters here, not cryptographic strength.
	return rollingHash(payload)
}

// orDefault is the best-effort combinator applied to every signal source:
// use the reading when present, a fixed sentinel otherwise.
func orDefault(value, sentinel string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return sentinel
	}
	return value
}

func joinPlugins(plugins []string) string {
	if len(plugins) == 0 {
		return sentinelPlugins
	}
	sorted := make([]string, len(plugins))
	copy(sorted, plugins)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func sha256Hex(payload string) (string, error) {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:]), nil
}

// rollingHash is a deterministic 32-bit fallback rendered as hex.
func rollingHash(payload string) string {
	var h uint32
	for _, r := range payload {
		h = h*31 + uint32(r)
	}
	return fmt.Sprintf("%08x", h)
}
