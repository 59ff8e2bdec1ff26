package engines

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/cache"
	"github.com/dgnsrekt/pitts/internal/tts"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultCloudEndpoint is the Google Cloud Text-to-Speech REST API.
	DefaultCloudEndpoint = "https://texttospeech.googleapis.com/v1"

	// MaxCharactersPerRequest is the request limit of the REST API.
	MaxCharactersPerRequest = 4500

	// slowRate is the words per minute below which gtts-cli runs in slow mode.
	slowRate = 120

	// normalRate maps to a speakingRate of 1.0.
	normalRate = 175.0
)

// Cache stores synthesized audio by key.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// CloudConfig holds configuration for the cloud engine.
type CloudConfig struct {
	// APIKey enables the REST API. Without it the engine shells out to
	// gtts-cli.
	APIKey   string
	Endpoint string

	// TLD selects the Google Translate host used by gtts-cli (default "com").
	TLD string

	// Timeout bounds a single request (default 30s).
	Timeout time.Duration

	// RequestsPerMinute limits outgoing requests (default 50).
	RequestsPerMinute int

	// MaxChars is the chunk size for long text (default 4500).
	MaxChars int

	// Cache is optional.
	Cache Cache

	HTTPClient *http.Client
}

// CloudEngine synthesizes MP3 audio with Google text-to-speech.
type CloudEngine struct {
	apiKey   string
	endpoint string
	tld      string
	timeout  time.Duration
	maxChars int

	client      *http.Client
	rateLimiter *rate.Limiter
	cache       Cache
	run         commandRunner

	mu     sync.Mutex
	voices map[string][]tts.Voice
}

// NewCloudEngine creates the cloud engine.
func NewCloudEngine(config CloudConfig) *CloudEngine {
	if config.Endpoint == "" {
		config.Endpoint = DefaultCloudEndpoint
	}
	if config.TLD == "" {
		config.TLD = "com"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 50
	}
	if config.MaxChars <= 0 {
		config.MaxChars = MaxCharactersPerRequest
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &CloudEngine{
		apiKey:      config.APIKey,
		endpoint:    strings.TrimRight(config.Endpoint, "/"),
		tld:         config.TLD,
		timeout:     config.Timeout,
		maxChars:    config.MaxChars,
		client:      config.HTTPClient,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 3),
		cache:       config.Cache,
		run:         runCommand,
		voices:      make(map[string][]tts.Voice),
	}
}

// Backend implements tts.Engine.
func (e *CloudEngine) Backend() tts.Backend {
	return tts.BackendCloud
}

// UsesAPI reports whether requests go to the REST API rather than gtts-cli.
func (e *CloudEngine) UsesAPI() bool {
	return e.apiKey != ""
}

// Synthesize implements tts.Engine.
func (e *CloudEngine) Synthesize(ctx context.Context, params tts.SynthesisParams) (*tts.Audio, error) {
	if strings.TrimSpace(params.Text) == "" {
		return nil, tts.EmptyInputError()
	}

	// gtts-cli output does not depend on volume; the sink applies it.
	volume := ""
	if e.UsesAPI() {
		volume = strconv.FormatFloat(params.Volume, 'f', 2, 64)
	}
	key := cache.Key(string(tts.BackendCloud), params.Text, params.Voice, params.Language,
		strconv.Itoa(params.Rate), volume, strconv.FormatBool(e.UsesAPI()))
	if e.cache != nil {
		if data, ok := e.cache.Get(key); ok {
			log.Debug("Cloud cache hit", "key", key, "bytes", len(data))
			return e.audio(data, params), nil
		}
	}

	var (
		data []byte
		err  error
	)
	if e.UsesAPI() {
		data, err = e.synthesizeAPI(ctx, params)
	} else {
		data, err = e.synthesizeCLI(ctx, params)
	}
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Put(key, data); err != nil {
			log.Debug("Could not cache cloud audio", "err", err)
		}
	}
	return e.audio(data, params), nil
}

// audio wraps MP3 data; gtts-cli cannot change the volume, so the sink
// applies it instead.
func (e *CloudEngine) audio(data []byte, params tts.SynthesisParams) *tts.Audio {
	gain := 1.0
	if !e.UsesAPI() {
		gain = params.Volume
	}
	return &tts.Audio{Format: tts.FormatMP3, Data: data, Gain: gain}
}

// synthesizeAPI splits text into request-sized chunks, synthesizes them in
// parallel and concatenates the MP3 streams in order.
func (e *CloudEngine) synthesizeAPI(ctx context.Context, params tts.SynthesisParams) ([]byte, error) {
	chunks := splitTextOnParagraphs(params.Text, e.maxChars)
	parts := make([][]byte, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		log.Debug("Synthesizing chunk", "index", i, "len", len(chunk))
		g.Go(func() error {
			data, err := e.synthesizeChunk(ctx, chunk, params)
			parts[i] = data
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bytes.Join(parts, nil), nil
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
		VolumeGainDb  float64 `json:"volumeGainDb"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (e *CloudEngine) synthesizeChunk(ctx context.Context, text string, params tts.SynthesisParams) ([]byte, error) {
	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	var body synthesizeRequest
	body.Input.Text = text
	body.Voice.LanguageCode = tts.RegionalLanguage(firstOr(params.Language, "en"))
	if strings.Count(params.Voice, "-") >= 2 {
		body.Voice.Name = params.Voice
	}
	body.AudioConfig.AudioEncoding = "MP3"
	body.AudioConfig.SpeakingRate = speakingRate(params.Rate)
	body.AudioConfig.VolumeGainDb = volumeGainDb(params.Volume)

	var resp synthesizeResponse
	if err := e.do(ctx, http.MethodPost, "/text:synthesize", nil, body, &resp); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, tts.SynthesisFailure(tts.BackendCloud, fmt.Errorf("invalid audio content: %w", err))
	}
	if len(data) == 0 {
		return nil, tts.SynthesisFailure(tts.BackendCloud, errors.New("empty audio content"))
	}
	return data, nil
}

// do sends a JSON request to the REST API and decodes the JSON response.
func (e *CloudEngine) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", e.apiKey)

	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("unable to encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.endpoint+path+"?"+query.Encode(), reqBody)
	if err != nil {
		return tts.SynthesisFailure(tts.BackendCloud, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if isNetworkError(err) {
			return tts.NetworkError(err)
		}
		return tts.SynthesisFailure(tts.BackendCloud, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return tts.SynthesisFailure(tts.BackendCloud, fmt.Errorf("HTTP status %d: %s", resp.StatusCode, msg)).
			WithContext("status", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isNetworkError(err) {
			return tts.NetworkError(err)
		}
		return tts.SynthesisFailure(tts.BackendCloud, fmt.Errorf("unable to decode response: %w", err))
	}
	return nil
}

// synthesizeCLI runs gtts-cli, reading the text from stdin and writing MP3
// to stdout.
func (e *CloudEngine) synthesizeCLI(ctx context.Context, params tts.SynthesisParams) ([]byte, error) {
	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.run(ctx, strings.NewReader(params.Text), "gtts-cli", e.cliArgs(params)...)
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return nil, tts.SynthesisFailure(tts.BackendCloud,
				fmt.Errorf("gtts-cli not found in PATH (install with: pip install gtts): %w", err))
		case errors.Is(err, errTimeout), isNetworkError(err):
			return nil, tts.NetworkError(err)
		}
		return nil, tts.SynthesisFailure(tts.BackendCloud, err)
	}
	if len(out) == 0 {
		return nil, tts.SynthesisFailure(tts.BackendCloud, errors.New("gtts-cli produced no audio"))
	}
	return out, nil
}

var regionTLDs = map[string]string{
	"GB": "co.uk",
	"AU": "com.au",
	"IN": "co.in",
	"CA": "ca",
	"IE": "ie",
	"ZA": "co.za",
	"NZ": "co.nz",
	"BR": "com.br",
	"PT": "pt",
	"MX": "com.mx",
	"ES": "es",
	"FR": "fr",
}

func (e *CloudEngine) cliArgs(params tts.SynthesisParams) []string {
	lang := firstOr(params.Language, "en")
	tld := e.tld
	if parts := strings.SplitN(lang, "-", 2); len(parts) == 2 {
		if t, ok := regionTLDs[strings.ToUpper(parts[1])]; ok {
			tld = t
		}
	}

	args := []string{"-", "-l", tts.BaseLanguage(lang), "--tld", tld}
	if params.Rate > 0 && params.Rate < slowRate {
		args = append(args, "--slow")
	}
	return append(args, "-o", "-")
}

// Voices implements tts.Engine.
func (e *CloudEngine) Voices(ctx context.Context, language string) ([]tts.Voice, error) {
	e.mu.Lock()
	cached, ok := e.voices[language]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	var (
		voices []tts.Voice
		err    error
	)
	if e.UsesAPI() {
		voices, err = e.apiVoices(ctx, language)
	} else {
		voices, err = e.cliVoices(ctx, language)
	}
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.voices[language] = voices
	e.mu.Unlock()
	return voices, nil
}

type voicesResponse struct {
	Voices []struct {
		LanguageCodes []string `json:"languageCodes"`
		Name          string   `json:"name"`
		SSMLGender    string   `json:"ssmlGender"`
	} `json:"voices"`
}

func (e *CloudEngine) apiVoices(ctx context.Context, language string) ([]tts.Voice, error) {
	query := url.Values{}
	if language != "" {
		query.Set("languageCode", language)
	}

	var resp voicesResponse
	if err := e.do(ctx, http.MethodGet, "/voices", query, nil, &resp); err != nil {
		return nil, err
	}

	voices := make([]tts.Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		lang := ""
		if len(v.LanguageCodes) > 0 {
			lang = v.LanguageCodes[0]
		}
		voices = append(voices, tts.Voice{
			ID:       v.Name,
			Name:     v.Name,
			Language: lang,
			Gender:   strings.ToLower(v.SSMLGender),
			Backend:  tts.BackendCloud,
		})
	}
	return voices, nil
}

var newlines = regexp.MustCompile(`\n+`)

var cliLanguageLine = regexp.MustCompile(`^\s*([A-Za-z]{2,3}(?:-[A-Za-z0-9]+)*):\s+(.+)$`)

// cliVoices lists the languages gtts-cli supports. gTTS has a single voice
// per language, so each language is reported as a voice.
func (e *CloudEngine) cliVoices(ctx context.Context, language string) ([]tts.Voice, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := e.run(ctx, nil, "gtts-cli", "--all")
	if err != nil {
		return nil, tts.SynthesisFailure(tts.BackendCloud, fmt.Errorf("unable to list gtts languages: %w", err))
	}
	return parseCLIVoices(out, language), nil
}

func parseCLIVoices(out []byte, language string) []tts.Voice {
	base := ""
	if language != "" {
		base = strings.ToLower(tts.BaseLanguage(language))
	}

	var voices []tts.Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		m := cliLanguageLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		if base != "" && !strings.HasPrefix(strings.ToLower(m[1]), base) {
			continue
		}
		voices = append(voices, tts.Voice{
			ID:       m[1],
			Name:     strings.TrimSpace(m[2]),
			Language: m[1],
			Backend:  tts.BackendCloud,
		})
	}
	return voices
}

// Available implements tts.Engine.
func (e *CloudEngine) Available() error {
	if e.UsesAPI() {
		return nil
	}
	if _, err := exec.LookPath("gtts-cli"); err != nil {
		return fmt.Errorf("gtts-cli not found in PATH: %w\n\nInstall with: pip install gtts, or set GOOGLE_TTS_API_KEY", err)
	}
	return nil
}

// Close implements tts.Engine.
func (e *CloudEngine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// speakingRate maps words per minute onto the API's 0.25 to 4.0 multiplier.
func speakingRate(wpm int) float64 {
	if wpm <= 0 {
		return 1.0
	}
	return clampFloat(float64(wpm)/normalRate, 0.25, 4.0)
}

// volumeGainDb maps a 0 to 1 volume onto the API's -96 to 16 dB range.
func volumeGainDb(volume float64) float64 {
	if volume <= 0 {
		return -96
	}
	return clampFloat(20*math.Log10(volume), -96, 16)
}

var networkHints = []string{
	"failed to connect",
	"connection refused",
	"connection reset",
	"network is unreachable",
	"name resolution",
	"no such host",
	"max retries exceeded",
	"timed out",
}

// isNetworkError reports whether err looks like a transport failure.
func isNetworkError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range networkHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// splitTextOnParagraphs splits text into chunks of at most maxChars,
// breaking on blank lines first and on words when a paragraph is too long.
func splitTextOnParagraphs(text string, maxChars int) []string {
	lines := newlines.Split(strings.TrimSpace(text), -1)

	var chunks []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > maxChars {
			chunks = append(chunks, splitTextOnWords(line, maxChars)...)
			continue
		}
		if len(chunks) == 0 || len(chunks[len(chunks)-1])+1+len(line) > maxChars {
			chunks = append(chunks, line)
			continue
		}
		chunks[len(chunks)-1] += "\n" + line
	}
	return chunks
}

// splitTextOnWords splits text into max length chunks at word boundaries.
// A single word longer than maxChars becomes its own chunk.
func splitTextOnWords(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := []string{words[0]}
	for _, word := range words[1:] {
		if len(chunks[len(chunks)-1])+1+len(word) > maxChars {
			chunks = append(chunks, word)
			continue
		}
		chunks[len(chunks)-1] += " " + word
	}
	return chunks
}

func firstOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
