package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const (
	DefaultEspeakBinary = "espeak-ng"
	DefaultEspeakRate   = 150
	espeakAmplitude     = 90
)

type EspeakConfig struct {
	Binary string
	Rate   int
	Voice  string
}

// Espeak is the offline engine. It shells out to espeak-ng and works without network.
type Espeak struct {
	binary string
	rate   int
	voice  string
}

func NewEspeak(cfg EspeakConfig) *Espeak {
	if cfg.Binary == "" {
		cfg.Binary = DefaultEspeakBinary
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultEspeakRate
	}
	return &Espeak{binary: cfg.Binary, rate: cfg.Rate, voice: cfg.Voice}
}

func (e *Espeak) Name() string { return "espeak" }

func (e *Espeak) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errBlankText
	}

	bin, err := exec.LookPath(e.binary)
	if err != nil {
		return nil, fmt.Errorf("espeak binary %q not found: %w", e.binary, err)
	}

	tmp, err := os.CreateTemp("", "percepto-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	args := []string{
		"-s", strconv.Itoa(e.rate),
		"-a", strconv.Itoa(espeakAmplitude),
		"-w", path,
	}
	if e.voice != "" {
		args = append(args, "-v", e.voice)
	}
	// text goes through stdin so it is never parsed as a flag
	args = append(args, "--stdin")

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("espeak failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read espeak output: %w", err)
	}

	samples, rate, err := decodeWAV(raw)
	if err != nil {
		return nil, fmt.Errorf("espeak output: %w", err)
	}
	return encodeWAV(samples, rate)
}
