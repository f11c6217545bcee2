package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/softspoken/parley/internal/logger"
)

// Voice is one entry from the Azure voices list.
type Voice struct {
	Name      string `json:"Name"`
	ShortName string `json:"ShortName"`
	Locale    string `json:"Locale"`
	Gender    string `json:"Gender"`
}

// ClientOption configures the TTS client.
type ClientOption func(*Client)

// WithAudioFormat sets the audio output format.
func WithAudioFormat(format string) ClientOption {
	return func(c *Client) { c.format = format }
}

// WithHTTPTimeout sets the HTTP client timeout for TTS requests.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithEndpoint overrides the regional endpoint. Used by tests.
func WithEndpoint(base string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// Client performs text-to-speech synthesis via the Azure Speech REST
// API.
type Client struct {
	subscriptionKey string
	format          string
	baseURL         string
	httpClient      *http.Client
	log             *logger.Logger
}

// NewClient creates an Azure Speech client for the given region.
func NewClient(key, region string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		subscriptionKey: key,
		format:          DefaultAudioFormat,
		baseURL:         fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices", region),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Voices fetches the available voice list.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices/list", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("voice list error %d: %s", resp.StatusCode, string(body))
	}

	var voices []Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("decoding voice list: %w", err)
	}

	c.log.Debug("tts: %d voices available", len(voices))
	return voices, nil
}

// Synthesize converts text to speech audio (WAV bytes) using the given
// voice at the fixed speaking rate.
func (c *Client) Synthesize(ctx context.Context, voice, text string) ([]byte, error) {
	ssml := buildSSML(voice, text)
	c.log.Debug("tts: synthesizing %d chars with voice %s", len(text), voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1", strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.format)
	req.Header.Set("User-Agent", "Parley/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts error %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}

	c.log.Debug("tts: got %d bytes of audio", len(audio))
	return audio, nil
}

// buildSSML wraps text in synthesis markup, applying the speaking rate.
func buildSSML(voice, text string) string {
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice name='%s'><prosody rate='%.1f'>%s</prosody></voice></speak>`,
		PreferredLocale, voice, SpeakingRate, escapeSSML(text),
	)
}

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeSSML(s string) string {
	return ssmlEscaper.Replace(s)
}
