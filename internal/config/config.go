// Package config reads app settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/UnendingLoop/percepto/internal/imageproc"
	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/UnendingLoop/percepto/internal/speech"
	"github.com/UnendingLoop/percepto/internal/vision"
	"github.com/dustin/go-humanize"
	wbfconfig "github.com/wb-go/wbf/config"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

// Source is the part of wbf config the app reads from.
type Source interface {
	GetString(key string) string
}

type Config struct {
	APIKey          string
	Models          []model.ModelCandidate
	Prompt          string
	MaxTokens       int32
	VisionTimeout   time.Duration
	VisionBaseURL   string
	MaxUploadBytes  int64
	MaxPayloadBytes int64
	MaxDimension    int

	TTSLanguage  string
	TTSSlow      bool
	TTSTimeout   time.Duration
	TTSEndpoint  string
	EspeakBinary string
	EspeakRate   int
	EspeakVoice  string

	Port     string
	GinMode  string
	LogLevel string
}

// Load reads the environment, first merging any .env files that exist.
func Load(envFiles ...string) (Config, error) {
	appConfig := wbfconfig.New()
	appConfig.EnableEnv("")
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := appConfig.LoadEnvFiles(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromSource(appConfig)
}

// FromSource parses and validates every setting, applying defaults for empty keys.
func FromSource(src Source) (Config, error) {
	p := parser{src: src}

	cfg := Config{
		APIKey:          strings.TrimSpace(src.GetString("GEMINI_API_KEY")),
		Models:          p.models("VISION_MODELS", vision.DefaultModels),
		Prompt:          p.str("VISION_PROMPT", vision.DefaultPrompt),
		MaxTokens:       int32(p.integer("VISION_MAX_TOKENS", 1024)),
		VisionTimeout:   p.duration("VISION_TIMEOUT", 60*time.Second),
		VisionBaseURL:   p.str("VISION_BASE_URL", ""),
		MaxUploadBytes:  p.bytes("MAX_UPLOAD_SIZE", 10_000_000),
		MaxPayloadBytes: p.bytes("MAX_PAYLOAD_SIZE", 5_000_000),
		MaxDimension:    p.integer("MAX_IMAGE_DIMENSION", imageproc.DefaultMaxDimension),

		TTSLanguage:  p.str("TTS_LANGUAGE", "en"),
		TTSSlow:      p.boolean("TTS_SLOW", false),
		TTSTimeout:   p.duration("TTS_TIMEOUT", 20*time.Second),
		TTSEndpoint:  p.str("TTS_ENDPOINT", speech.DefaultTTSEndpoint),
		EspeakBinary: p.str("ESPEAK_BINARY", speech.DefaultEspeakBinary),
		EspeakRate:   p.integer("ESPEAK_RATE", speech.DefaultEspeakRate),
		EspeakVoice:  p.str("ESPEAK_VOICE", ""),

		Port:     p.str("APP_PORT", "8080"),
		GinMode:  p.str("GIN_MODE", "release"),
		LogLevel: p.str("LOG_LEVEL", "info"),
	}

	if cfg.APIKey == "" {
		p.errs = append(p.errs, ErrMissingAPIKey)
	}
	if cfg.MaxPayloadBytes > cfg.MaxUploadBytes {
		p.errs = append(p.errs, fmt.Errorf("MAX_PAYLOAD_SIZE (%s) exceeds MAX_UPLOAD_SIZE (%s)",
			humanize.Bytes(uint64(cfg.MaxPayloadBytes)), humanize.Bytes(uint64(cfg.MaxUploadBytes))))
	}

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parser collects every bad value instead of stopping at the first one.
type parser struct {
	src  Source
	errs []error
}

func (p *parser) raw(key string) string {
	return strings.TrimSpace(p.src.GetString(key))
}

func (p *parser) str(key, def string) string {
	if v := p.raw(key); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := p.raw(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: want a positive integer, got %q", key, v))
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v := p.raw(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: want true or false, got %q", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.raw(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: want a positive duration like 30s, got %q", key, v))
		return def
	}
	return d
}

// bytes accepts humanize sizes: 10MB, 5MiB, 500kB or a plain byte count.
func (p *parser) bytes(key string, def int64) int64 {
	v := p.raw(key)
	if v == "" {
		return def
	}
	n, err := humanize.ParseBytes(v)
	if err != nil || n == 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: want a size like 10MB, got %q", key, v))
		return def
	}
	return int64(n)
}

func (p *parser) models(key string, def []model.ModelCandidate) []model.ModelCandidate {
	v := p.raw(key)
	if v == "" {
		out := make([]model.ModelCandidate, len(def))
		copy(out, def)
		return out
	}

	var out []model.ModelCandidate
	seen := make(map[string]bool)
	for _, m := range strings.Split(v, ",") {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, model.ModelCandidate(m))
	}
	if len(out) == 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: no model names in %q", key, v))
	}
	return out
}
