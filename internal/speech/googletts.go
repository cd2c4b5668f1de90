package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wb-go/wbf/retry"
)

const DefaultTTSEndpoint = "https://translate.google.com/translate_tts"

// maxChunkAudio caps one MP3 response; a 100-character chunk is well under it.
const maxChunkAudio = 4 << 20

var (
	errBlankText     = errors.New("text is blank")
	errAudioTooLarge = errors.New("tts response is too large")
)

type GoogleTTSConfig struct {
	Endpoint string
	Language string
	Slow     bool
	Timeout  time.Duration
	Retry    retry.Strategy
}

// Стратегия ретрая запросов к TTS - значения по умолчанию, если не заданы в конфиге
var defaultTTSRetry = retry.Strategy{
	Attempts: 3,
	Delay:    300 * time.Millisecond,
	Backoff:  2,
}

// GoogleTTS reads text through the public translate TTS endpoint.
type GoogleTTS struct {
	httpClient *http.Client
	endpoint   string
	language   string
	slow       bool
	strategy   retry.Strategy
	maxAudio   int64
}

func NewGoogleTTS(cfg GoogleTTSConfig) *GoogleTTS {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultTTSEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry = defaultTTSRetry
	}
	return &GoogleTTS{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.Endpoint,
		language:   cfg.Language,
		slow:       cfg.Slow,
		strategy:   cfg.Retry,
		maxAudio:   maxChunkAudio,
	}
}

func (g *GoogleTTS) Name() string { return "google-tts" }

// Synthesize fetches every chunk as MP3 and joins them into one mono WAV.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := splitText(text, maxChunkLen)
	if len(chunks) == 0 {
		return nil, errBlankText
	}

	var (
		samples []int
		rate    int
	)
	for i, chunk := range chunks {
		data, err := g.fetch(ctx, chunk, i, len(chunks))
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}

		pcm, sr, err := decodeMP3(data)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if rate != 0 && sr != rate {
			return nil, fmt.Errorf("chunk %d/%d: sample rate %d differs from %d", i+1, len(chunks), sr, rate)
		}
		rate = sr
		samples = append(samples, pcm...)
	}

	return encodeWAV(samples, rate)
}

func (g *GoogleTTS) fetch(ctx context.Context, chunk string, idx, total int) ([]byte, error) {
	speed := "1"
	if g.slow {
		speed = "0.24"
	}

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", g.language)
	q.Set("q", chunk)
	q.Set("ttsspeed", speed)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(len([]rune(chunk))))
	u := g.endpoint + "?" + q.Encode()

	var (
		body      []byte
		permanent error
	)
	err := retry.DoContext(ctx, g.strategy, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("tts endpoint returned %s", resp.Status)
		default:
			// повтор не поможет - сразу отдаем ошибку, без траты попыток
			permanent = fmt.Errorf("tts endpoint returned %s", resp.Status)
			return nil
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, g.maxAudio+1))
		if err != nil {
			return err
		}
		if int64(len(body)) > g.maxAudio {
			permanent = fmt.Errorf("%w: over %d bytes", errAudioTooLarge, g.maxAudio)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if permanent != nil {
		return nil, permanent
	}
	return body, nil
}
