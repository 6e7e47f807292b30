package topic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdok/comparea/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const algeriaDescription = "Algeria, officially People's Democratic Republic of Algeria, is a country in the Maghreb region of North Africa on the Mediterranean coast. Its capital and most populous city is Algiers."

func loadTopic(t *testing.T, name string) *Topic {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	var topic Topic
	require.NoError(t, json.Unmarshal(data, &topic))
	return &topic
}

func TestGetValue(t *testing.T) {
	algeria := loadTopic(t, "Algeria.json")

	area, ok := GetValue(algeria, PathArea)
	require.True(t, ok)
	assert.Equal(t, 2381741.0, area)

	_, ok = GetValue(algeria, "/location/country/capital")
	assert.False(t, ok)
	_, ok = GetValue(nil, PathArea)
	assert.False(t, ok)

	assert.Equal(t, []string{"People's Democratic Republic of Algeria", "Al-Jazair"}, Aliases(algeria))
}

func TestExtractPopulation(t *testing.T) {
	algeria := loadTopic(t, "Algeria.json")
	pop, ok := ExtractPopulation(algeria.Property[PathPopulation])
	require.True(t, ok)
	assert.Equal(t, Population{
		Number:    12945462,
		Year:      "1968",
		Source:    "World Bank",
		SourceURL: "http://data.worldbank.org/indicator/SP.POP.TOTL",
	}, pop)
	year, ok := pop.YearNumber()
	assert.True(t, ok)
	assert.Equal(t, 1968, year)

	_, ok = ExtractPopulation(nil)
	assert.False(t, ok)
	_, ok = ExtractPopulation(&Property{Values: []Value{{Text: "no number"}}})
	assert.False(t, ok)
}

func TestTrimDescription(t *testing.T) {
	algeria := loadTopic(t, "Algeria.json")
	description, ok := GetValue(algeria, PathDescription)
	require.True(t, ok)

	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{name: "cut after sentence", text: description.(string), maxLen: 200, want: algeriaDescription},
		{name: "short enough", text: "  Short. Text.  ", maxLen: 200, want: "Short. Text."},
		{name: "first sentence too long", text: "abcdefghij. klm", maxLen: 5, want: "abcd…"},
		{name: "no sentence", text: "abcdefghij", maxLen: 5, want: "abcd…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimDescription(tt.text, tt.maxLen))
		})
	}
	assert.Len(t, algeriaDescription, 186)
}

func TestApply(t *testing.T) {
	props := map[string]interface{}{schema.PropertyName: "Algeria"}
	Apply(props, loadTopic(t, "Algeria.json"), 200)
	assert.Equal(t, map[string]interface{}{
		schema.PropertyName:                "Algeria",
		schema.PropertyPopulation:          int64(12945462),
		schema.PropertyPopulationYear:      1968,
		schema.PropertyPopulationSource:    "World Bank",
		schema.PropertyPopulationSourceURL: "http://data.worldbank.org/indicator/SP.POP.TOTL",
		schema.PropertyDescription:         algeriaDescription,
	}, props)

	props = map[string]interface{}{}
	Apply(props, nil, 200)
	assert.Equal(t, map[string]interface{}{
		schema.PropertyPopulation:     nil,
		schema.PropertyPopulationYear: nil,
		schema.PropertyDescription:    "",
	}, props)
}

func TestQuoteKey(t *testing.T) {
	tests := map[string]string{
		"Algeria":                     "Algeria",
		"Curaçao":                     "Cura$00E7ao",
		"Bosnia_and_Herzegovina":      "Bosnia_and_Herzegovina",
		"Guinea-Bissau":               "Guinea-Bissau",
		"Saint_Kitts_and_Nevis,_West": "Saint_Kitts_and_Nevis$002C_West",
		"Côte_d'Ivoire":               "C$00F4te_d$0027Ivoire",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, QuoteKey(in))
		})
	}
}

func TestWikiURLToTitle(t *testing.T) {
	title, ok := WikiURLToTitle("http://en.wikipedia.org/wiki/S%C3%A3o_Tom%C3%A9_and_Pr%C3%ADncipe")
	assert.True(t, ok)
	assert.Equal(t, "São Tomé and Príncipe", title)

	_, ok = WikiURLToTitle("http://de.wikipedia.org/wiki/Algerien")
	assert.False(t, ok)
}

func newTestClient(t *testing.T, serviceURL string) (*Client, *Cache) {
	t.Helper()
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	client, err := NewClient(Config{
		ServiceURL:        serviceURL,
		APIKey:            "secret",
		CacheDir:          "unused",
		Timeout:           time.Second,
		Limit:             1000,
		DescriptionLength: 300,
		Overrides:         map[string]string{"Georgia (country)": "/m/0d0kn"},
	}, cache)
	require.NoError(t, err)
	return client, cache
}

func TestURL(t *testing.T) {
	client, _ := newTestClient(t, "https://topics.example.com/topic")
	tests := map[string]string{
		"Algeria":           "https://topics.example.com/topic/wikipedia/en_title/Algeria?",
		"Myanmar":           "https://topics.example.com/topic/wikipedia/en_title/Burma?",
		"Georgia (country)": "https://topics.example.com/topic/m/0d0kn?",
		"Curaçao":           "https://topics.example.com/topic/wikipedia/en_title/Cura$00E7ao?",
	}
	for title, prefix := range tests {
		t.Run(title, func(t *testing.T) {
			u := client.URL(title)
			assert.Contains(t, u, prefix)
			assert.Contains(t, u, "key=secret")
			assert.Contains(t, u, "limit=1000")
			assert.Contains(t, u, "filter=%2Flocation%2Fstatistical_region&filter=%2Fcommon%2Ftopic")
		})
	}
}

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(Config{ServiceURL: "not a url", CacheDir: "x", Timeout: time.Second, Limit: 1, DescriptionLength: 1}, nil)
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	data, err := os.ReadFile("testdata/Algeria.json")
	require.NoError(t, err)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/wikipedia/en_title/Algeria" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		_, _ = w.Write(data)
	}))
	defer server.Close()

	client, cache := newTestClient(t, server.URL)
	ctx := context.Background()

	topic, err := client.Fetch(ctx, "Algeria")
	require.NoError(t, err)
	assert.Equal(t, "/m/0h3y", topic.ID)
	assert.FileExists(t, cache.Path("Algeria"))

	// second fetch is served from the cache
	topic, err = client.Fetch(ctx, "Algeria")
	require.NoError(t, err)
	assert.Equal(t, "/m/0h3y", topic.ID)
	assert.Equal(t, int32(1), requests.Load())

	_, err = client.Fetch(ctx, "Atlantis")
	assert.ErrorContains(t, err, "404")
}

func TestCache(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "Saint_Helena_Ascension_Tristan.json", filepath.Base(cache.Path("Saint Helena/Ascension Tristan")))

	_, ok, err := cache.Get("Algeria")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put("Failed", []byte(`{"error":{"code":503,"message":"Backend Error"}}`)))
	_, ok, err = cache.Get("Failed")
	require.NoError(t, err)
	assert.False(t, ok, "cached errors are a miss")

	require.NoError(t, cache.Put("Broken", []byte(`{`)))
	_, _, err = cache.Get("Broken")
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	data, err := os.ReadFile("testdata/Algeria.json")
	require.NoError(t, err)
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cache.Put("Algeria", data))
	require.NoError(t, cache.Put("Failed", []byte(`{"error":{"code":503}}`)))

	pruned, err := cache.Prune(KeepPaths)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	algeria, ok, err := cache.Get("Algeria")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, algeria.Property, 3)
	assert.NotContains(t, algeria.Property, PathAlias)
	assert.Contains(t, algeria.Property, PathPopulation)

	failed, err := os.ReadFile(cache.Path("Failed"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":503}}`, string(failed))
}
