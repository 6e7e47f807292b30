package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// FilterPrefixes limit the properties the topic service returns.
var FilterPrefixes = []string{"/location/statistical_region", "/common/topic"}

// titleAliases maps titles whose topic is known under another title.
var titleAliases = map[string]string{
	"Myanmar":            "Burma",
	"Vatican City State": "Vatican City",
}

const wikiURLPrefix = "http://en.wikipedia.org/wiki/"

// Config configures the topic service and its cache.
type Config struct {
	ServiceURL string `yaml:"serviceUrl" json:"serviceUrl" default:"https://www.googleapis.com/freebase/v1/topic" validate:"required,url"`
	APIKey     string `yaml:"apiKey" json:"-"`
	CacheDir   string `yaml:"cacheDir" json:"cacheDir" default:"/var/tmp/freebase" validate:"required"`
	// NoCache skips reading the cache, fetched topics are still written to it.
	NoCache           bool          `yaml:"noCache" json:"noCache"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout" default:"10s" validate:"gt=0"`
	Limit             int           `yaml:"limit" json:"limit" default:"1000" validate:"gt=0"`
	DescriptionLength int           `yaml:"descriptionLength" json:"descriptionLength" default:"300" validate:"gt=0"`
	// Overrides maps titles to topic ids, for titles the service can't resolve.
	Overrides map[string]string `yaml:"overrides" json:"overrides"`
}

// Client fetches topics by Wikipedia title, through a Cache.
type Client struct {
	cfg   Config
	cache *Cache
	http  *http.Client
}

func NewClient(cfg Config, cache *Cache) (*Client, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:   cfg,
		cache: cache,
		http:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// URL returns the topic service URL for title.
func (c *Client) URL(title string) string {
	if alias, ok := titleAliases[title]; ok {
		title = alias
	}
	topicID, ok := c.cfg.Overrides[title]
	if !ok {
		topicID = "/wikipedia/en_title/" + QuoteKey(strings.ReplaceAll(title, " ", "_"))
	}
	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("limit", fmt.Sprint(c.cfg.Limit))
	for _, prefix := range FilterPrefixes {
		params.Add("filter", prefix)
	}
	return c.cfg.ServiceURL + topicID + "?" + params.Encode()
}

// Fetch returns the topic for the Wikipedia title, from the cache when possible.
func (c *Client) Fetch(ctx context.Context, title string) (*Topic, error) {
	if !c.cfg.NoCache {
		t, ok, err := c.cache.Get(title)
		if err != nil {
			return nil, err
		}
		if ok {
			return t, nil
		}
	}

	u := c.URL(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	log.Info().Str("title", title).Msg("fetching topic")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching topic %s: %s", title, resp.Status)
	}
	var t Topic
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding topic %s: %w", title, err)
	}
	if err := c.cache.Put(title, data); err != nil {
		return nil, err
	}
	return &t, nil
}

// QuoteKey escapes a title the way the topic service expects keys: letters, digits,
// underscores and hyphens are kept, every other character becomes $ and four hex digits.
func QuoteKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
			b.WriteRune(r)
			continue
		}
		fmt.Fprintf(&b, "$%04X", r)
	}
	return b.String()
}

// WikiURLToTitle returns the article title of an English Wikipedia URL, or false for other URLs.
func WikiURLToTitle(wikiURL string) (string, bool) {
	if !strings.HasPrefix(wikiURL, wikiURLPrefix) {
		log.Error().Str("url", wikiURL).Msg("invalid wiki URL")
		return "", false
	}
	title, err := url.PathUnescape(strings.TrimPrefix(wikiURL, wikiURLPrefix))
	if err != nil {
		log.Error().Err(err).Str("url", wikiURL).Msg("invalid wiki URL")
		return "", false
	}
	return strings.ReplaceAll(title, "_", " "), true
}
