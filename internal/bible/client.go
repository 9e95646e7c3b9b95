// Package bible looks up verse text from API.Bible, falling back to
// bible-api.com (KJV only) when the primary provider is unavailable.
package bible

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/metrics"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// FallbackVersion is the only translation served by the fallback provider
const FallbackVersion = "KJV"

const (
	sourceAPIBible = "api.bible"
	sourceFallback = "bible-api.com"
	sourceCache    = "cache"

	maxResponseBytes = 1 << 20
)

// ErrUnsupportedVersion is returned when no bible id is configured for a version
var ErrUnsupportedVersion = errors.New("unsupported bible version")

// Verse is the text of a reference in one translation
type Verse struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
	Version   string `json:"version"`
	Source    string `json:"source"`
}

// Provider fetches a verse. It returns nil, nil when the passage does not exist.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, ref *Reference, version string) (*Verse, error)
}

// Cache stores looked-up verses
type Cache interface {
	Get(ctx context.Context, key string) (*Verse, error)
	Set(ctx context.Context, key string, verse *Verse) error
}

// Client resolves references through the primary provider, the fallback and the cache
type Client struct {
	primary  Provider
	fallback Provider
	cache    Cache
}

// Config configures NewClient
type Config struct {
	APIKey      string
	APIURL      string
	FallbackURL string
	BibleIDs    map[string]string
	Timeout     time.Duration
}

// NewClient builds a client. Without an API key only the fallback provider is used.
// cache may be nil.
func NewClient(cfg Config, cache Cache) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	c := &Client{
		fallback: NewBibleAPIProvider(cfg.FallbackURL, httpClient),
		cache:    cache,
	}
	if cfg.APIKey != "" {
		c.primary = NewAPIBibleProvider(cfg.APIURL, cfg.APIKey, cfg.BibleIDs, httpClient)
	}
	return c
}

// NewClientWithProviders builds a client from explicit providers. primary may be nil.
func NewClientWithProviders(primary, fallback Provider, cache Cache) *Client {
	return &Client{primary: primary, fallback: fallback, cache: cache}
}

// FetchVerse looks up reference in version. It returns nil, nil when the
// passage does not exist, and an error wrapping a parse failure when the
// reference is malformed.
func (c *Client) FetchVerse(ctx context.Context, reference, version string) (*Verse, error) {
	ref, err := ParseReference(reference)
	if err != nil {
		return nil, &InvalidReferenceError{Reference: reference, Err: err}
	}
	version = strings.ToUpper(strings.TrimSpace(version))
	if version == "" {
		version = FallbackVersion
	}

	key := cacheKey(ref, version)
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("Verse cache read failed")
		} else if cached != nil {
			metrics.RecordVerseLookup(sourceCache, "found")
			return cached, nil
		}
	}

	verse, err := c.lookup(ctx, ref, version)
	if err != nil || verse == nil {
		return verse, err
	}

	// Keyed by the version actually served; fallback text is always KJV.
	if c.cache != nil {
		storeKey := cacheKey(ref, verse.Version)
		if err := c.cache.Set(ctx, storeKey, verse); err != nil {
			log.WithError(err).WithField("key", storeKey).Warn("Verse cache write failed")
		}
	}
	return verse, nil
}

func (c *Client) lookup(ctx context.Context, ref *Reference, version string) (*Verse, error) {
	if c.primary != nil {
		verse, err := c.primary.Fetch(ctx, ref, version)
		if err == nil {
			recordLookup(c.primary.Name(), verse)
			return verse, nil
		}
		if errors.Is(err, ErrUnsupportedVersion) {
			return nil, err
		}
		metrics.RecordVerseLookup(c.primary.Name(), "error")
		log.WithFields(log.Fields{
			"reference": ref.String(),
			"version":   version,
		}).WithError(err).Warn("Primary verse provider failed, using fallback")
	}

	if c.fallback == nil {
		return nil, fmt.Errorf("no verse provider available")
	}
	verse, err := c.fallback.Fetch(ctx, ref, FallbackVersion)
	if err != nil {
		metrics.RecordVerseLookup(c.fallback.Name(), "error")
		return nil, fmt.Errorf("failed to fetch verse: %w", err)
	}
	recordLookup(c.fallback.Name(), verse)
	return verse, nil
}

func recordLookup(source string, verse *Verse) {
	if verse == nil {
		metrics.RecordVerseLookup(source, "not_found")
		return
	}
	metrics.RecordVerseLookup(source, "found")
}

func cacheKey(ref *Reference, version string) string {
	return "verse:" + version + ":" + ref.PassageID()
}

// InvalidReferenceError reports a reference that could not be parsed
type InvalidReferenceError struct {
	Reference string
	Err       error
}

func (e *InvalidReferenceError) Error() string {
	return e.Err.Error()
}

func (e *InvalidReferenceError) Unwrap() error {
	return e.Err
}

// APIBibleProvider queries api.scripture.api.bible
type APIBibleProvider struct {
	baseURL  string
	apiKey   string
	bibleIDs map[string]string
	client   *http.Client
}

// NewAPIBibleProvider creates the primary provider
func NewAPIBibleProvider(baseURL, apiKey string, bibleIDs map[string]string, client *http.Client) *APIBibleProvider {
	return &APIBibleProvider{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		bibleIDs: bibleIDs,
		client:   client,
	}
}

func (p *APIBibleProvider) Name() string { return sourceAPIBible }

// Fetch retrieves a passage as plain text
func (p *APIBibleProvider) Fetch(ctx context.Context, ref *Reference, version string) (*Verse, error) {
	bibleID, ok := p.bibleIDs[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}

	q := url.Values{}
	q.Set("content-type", "text")
	q.Set("include-notes", "false")
	q.Set("include-titles", "false")
	q.Set("include-chapter-numbers", "false")
	q.Set("include-verse-numbers", "false")
	endpoint := fmt.Sprintf("%s/bibles/%s/passages/%s?%s",
		p.baseURL, url.PathEscape(bibleID), url.PathEscape(ref.PassageID()), q.Encode())

	body, found, err := get(ctx, p.client, endpoint, map[string]string{"api-key": p.apiKey})
	if err != nil || !found {
		return nil, err
	}

	content := gjson.GetBytes(body, "data.content")
	if !content.Exists() {
		return nil, fmt.Errorf("api.bible response missing data.content")
	}
	text := cleanText(content.String())
	if text == "" {
		return nil, nil
	}

	reference := gjson.GetBytes(body, "data.reference").String()
	if reference == "" {
		reference = ref.String()
	}
	return &Verse{Reference: reference, Text: text, Version: version, Source: sourceAPIBible}, nil
}

// BibleAPIProvider queries bible-api.com, which serves public-domain translations
type BibleAPIProvider struct {
	baseURL string
	client  *http.Client
}

// NewBibleAPIProvider creates the fallback provider
func NewBibleAPIProvider(baseURL string, client *http.Client) *BibleAPIProvider {
	return &BibleAPIProvider{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (p *BibleAPIProvider) Name() string { return sourceFallback }

// Fetch retrieves a passage. version is ignored; the result is always KJV.
func (p *BibleAPIProvider) Fetch(ctx context.Context, ref *Reference, _ string) (*Verse, error) {
	endpoint := fmt.Sprintf("%s/%s?translation=kjv", p.baseURL, url.PathEscape(ref.String()))

	body, found, err := get(ctx, p.client, endpoint, nil)
	if err != nil || !found {
		return nil, err
	}

	if errMsg := gjson.GetBytes(body, "error"); errMsg.Exists() {
		return nil, nil
	}
	text := gjson.GetBytes(body, "text")
	if !text.Exists() {
		return nil, fmt.Errorf("bible-api.com response missing text")
	}
	cleaned := cleanText(text.String())
	if cleaned == "" {
		return nil, nil
	}

	reference := gjson.GetBytes(body, "reference").String()
	if reference == "" {
		reference = ref.String()
	}
	return &Verse{Reference: reference, Text: cleaned, Version: FallbackVersion, Source: sourceFallback}, nil
}

// get performs a GET and returns the body. found is false on 404; other
// non-2xx statuses and undecodable bodies are errors.
func get(ctx context.Context, client *http.Client, endpoint string, headers map[string]string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, false, fmt.Errorf("response is not valid JSON")
	}
	return body, true, nil
}

func cleanText(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
