package locator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pospos369/ip-location-api/upstream"
)

func mockCandidate(name string, credentialed bool, defaultCredential string) (*Candidate, *upstream.MockProvider) {
	provider := &upstream.MockProvider{
		ProviderName: name,
		Credentialed: credentialed,
	}

	return &Candidate{
		Provider:          provider,
		DefaultCredential: defaultCredential,
		Weight:            10,
	}, provider
}

// mockLocator swaps the configured candidates for mocks while keeping the
// rest of the instance intact.
func mockLocator(t *testing.T, config *Config, candidates ...*Candidate) *Locator {
	t.Helper()

	l := newTestLocator(config)
	l.candidates = candidates
	l.picker = &fixedPicker{}

	return l
}

func TestResolveLocationFallsBackOnCredentialInvalid(t *testing.T) {
	first, firstProvider := mockCandidate("baidu-map", true, "bad-ak")
	second, secondProvider := mockCandidate("pconline", false, "")

	firstProvider.On("Lookup", mock.Anything, "bad-ak").
		Return(nil, upstream.NewError("baidu-map", upstream.ReasonCredentialInvalid, errors.New("baidu status 240")))

	secondProvider.On("Lookup", mock.Anything, "").
		Return(&upstream.Location{Province: "广东省", City: "惠州市"}, nil)

	l := mockLocator(t, &Config{}, first, second)

	location, failures := l.resolveLocation(context.Background(), Query{IP: "114.247.50.2"})

	require.NotNil(t, location)
	assert.Equal(t, "pconline", location.Source)
	assert.Equal(t, "广东省", location.Province)

	require.Len(t, failures, 1)
	assert.Equal(t, "baidu-map", failures[0].Provider)
	assert.Equal(t, upstream.ReasonCredentialInvalid, failures[0].Reason)

	// One attempt per provider, never a retry.
	firstProvider.AssertNumberOfCalls(t, "Lookup", 1)
	secondProvider.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestResolveLocationIncompleteTriggersFallback(t *testing.T) {
	first, firstProvider := mockCandidate("baidu-opendata", false, "")
	second, secondProvider := mockCandidate("pconline", false, "")

	// Structurally valid payload with an empty city is not a success.
	firstProvider.On("Lookup", mock.Anything, "").
		Return(&upstream.Location{Province: "广东省"}, nil)

	secondProvider.On("Lookup", mock.Anything, "").
		Return(&upstream.Location{Province: "广东省", City: "深圳市"}, nil)

	l := mockLocator(t, &Config{}, first, second)

	location, failures := l.resolveLocation(context.Background(), Query{IP: "1.2.3.4"})

	require.NotNil(t, location)
	assert.Equal(t, "pconline", location.Source)

	require.Len(t, failures, 1)
	assert.Equal(t, upstream.ReasonIncompleteLocation, failures[0].Reason)
}

func TestResolveLocationAllExhausted(t *testing.T) {
	first, firstProvider := mockCandidate("baidu-opendata", false, "")
	second, secondProvider := mockCandidate("pconline", false, "")

	firstProvider.On("Lookup", mock.Anything, "").
		Return(nil, upstream.NewError("baidu-opendata", upstream.ReasonTimeout, errors.New("dial timeout")))

	secondProvider.On("Lookup", mock.Anything, "").
		Return(nil, upstream.NewError("pconline", upstream.ReasonMalformedResponse, errors.New("bad json")))

	l := mockLocator(t, &Config{}, first, second)

	location, failures := l.resolveLocation(context.Background(), Query{IP: "1.2.3.4"})

	assert.Nil(t, location)
	require.Len(t, failures, 2)
	assert.Equal(t, upstream.ReasonTimeout, failures[0].Reason)
	assert.Equal(t, upstream.ReasonMalformedResponse, failures[1].Reason)
}

func TestResolveLocationCallerCredentialLeads(t *testing.T) {
	keyless, keylessProvider := mockCandidate("pconline", false, "")
	credentialed, credentialedProvider := mockCandidate("baidu-map", true, "")

	credentialedProvider.On("Lookup", mock.Anything, "caller-ak").
		Return(&upstream.Location{Province: "北京", City: "北京市"}, nil)

	// Keyless candidate listed first, but the caller credential must
	// still promote baidu-map to the head of the chain.
	l := mockLocator(t, &Config{}, keyless, credentialed)

	location, _ := l.resolveLocation(context.Background(), Query{IP: "1.2.3.4", BaiduAK: "caller-ak"})

	require.NotNil(t, location)
	assert.Equal(t, "baidu-map", location.Source)
	assert.Equal(t, "北京市", location.Province)

	keylessProvider.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestResolveLocationExcludesCredentialMissing(t *testing.T) {
	credentialed, credentialedProvider := mockCandidate("amap", true, "")
	keyless, keylessProvider := mockCandidate("pconline", false, "")

	keylessProvider.On("Lookup", mock.Anything, "").
		Return(&upstream.Location{Province: "上海", City: "上海市"}, nil)

	l := mockLocator(t, &Config{}, credentialed, keyless)

	location, failures := l.resolveLocation(context.Background(), Query{IP: "1.2.3.4"})

	require.NotNil(t, location)
	assert.Equal(t, "pconline", location.Source)

	// The credentialed provider was excluded, not invoked.
	credentialedProvider.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)

	require.Len(t, failures, 1)
	assert.Equal(t, upstream.ReasonCredentialMissing, failures[0].Reason)
}

func TestResolveLocationCachesCredentialLessResults(t *testing.T) {
	only, onlyProvider := mockCandidate("pconline", false, "")

	onlyProvider.On("Lookup", mock.Anything, "").
		Return(&upstream.Location{Province: "广东省", City: "惠州市"}, nil)

	l := mockLocator(t, &Config{CacheSize: 8}, only)

	for i := 0; i < 3; i++ {
		location, _ := l.resolveLocation(context.Background(), Query{IP: "114.247.50.2"})
		require.NotNil(t, location)
		assert.Equal(t, "惠州市", location.City)
	}

	onlyProvider.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestResolveLocationZeroConfigTimeoutDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"1","info":"OK","infocode":"10000","province":"广东省","city":"深圳市","adcode":"440300","rectangle":"113.70,22.44;114.63,22.87"}`))
	}))
	t.Cleanup(server.Close)

	provider := upstream.NewAmap(server.Client())
	provider.EndpointURL = server.URL

	// A zero-value Config must not hand providers an already-expired
	// context.
	l := New(&Config{})
	l.candidates = []*Candidate{{Provider: provider, DefaultCredential: "test-key", Weight: 10}}
	l.picker = &fixedPicker{}

	location, failures := l.resolveLocation(context.Background(), Query{IP: "1.2.3.4"})

	require.NotNil(t, location)
	assert.Empty(t, failures)
	assert.Equal(t, "深圳市", location.City)
}

func TestResolveLocationCacheKeyedByCoor(t *testing.T) {
	only, onlyProvider := mockCandidate("pconline", false, "")

	onlyProvider.On("Lookup", mock.Anything, "").
		Return(&upstream.Location{Province: "广东省", City: "惠州市", Longitude: "114.41"}, nil)

	l := mockLocator(t, &Config{CacheSize: 8}, only)

	// A different coordinate hint means a different answer upstream, so it
	// must be a cache miss even for the same IP.
	for _, coor := range []string{"bd09ll", "gcj02"} {
		location, _ := l.resolveLocation(context.Background(), Query{IP: "114.247.50.2", Coor: coor})
		require.NotNil(t, location)
	}

	onlyProvider.AssertNumberOfCalls(t, "Lookup", 2)

	// Repeating an already-seen hint still hits the cache, and the bare
	// query shares the default-hint entry.
	for _, coor := range []string{"bd09ll", ""} {
		location, _ := l.resolveLocation(context.Background(), Query{IP: "114.247.50.2", Coor: coor})
		require.NotNil(t, location)
	}

	onlyProvider.AssertNumberOfCalls(t, "Lookup", 2)
}

func TestResolveLocationSkipsCacheForCallerCredentials(t *testing.T) {
	only, onlyProvider := mockCandidate("amap", true, "")

	onlyProvider.On("Lookup", mock.Anything, "caller-key").
		Return(&upstream.Location{Province: "广东省", City: "深圳市"}, nil)

	l := mockLocator(t, &Config{CacheSize: 8}, only)

	for i := 0; i < 2; i++ {
		location, _ := l.resolveLocation(context.Background(), Query{IP: "1.2.3.4", AmapKey: "caller-key"})
		require.NotNil(t, location)
	}

	// Caller-credentialed lookups bypass the shared cache entirely.
	onlyProvider.AssertNumberOfCalls(t, "Lookup", 2)
}
