package locator

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"time"
)

// Config represents our application's configuration.
type Config struct {
	// BindAddress is the address to bind our webserver to.
	BindAddress string `mapstructure:"bind"`

	// UpstreamTimeout bounds every single provider call.
	UpstreamTimeout time.Duration `mapstructure:"upstreamTimeout"`

	// CacheSize is the number of credential-less results to keep in the
	// LRU cache. Zero disables the cache.
	CacheSize int `mapstructure:"cacheSize"`

	// CheckInterval is the delay between upstream availability probes.
	CheckInterval time.Duration `mapstructure:"checkInterval"`

	// BaiduMapAK is the process-wide default Baidu Map access key. When
	// empty, Baidu Map only participates for callers supplying their own.
	BaiduMapAK string `mapstructure:"baiduMapAK"`

	// AmapKey is the process-wide default Amap web service key.
	AmapKey string `mapstructure:"amapKey"`

	// ProviderWeights tunes the weighted random pick of the starting
	// candidate for credential-less requests, keyed by provider id.
	ProviderWeights map[string]int `mapstructure:"providerWeights"`

	// RootCAs is a list of CA certificates, which we parse from Mozilla directly.
	RootCAs *x509.CertPool

	upstreamClient *http.Client
}

// SetRootCAs sets the root ca files, and creates the http client used for
// all upstream lookups and availability probes.
// This **MUST** be called before UpstreamClient is used.
func (c *Config) SetRootCAs(cas *x509.CertPool) {
	c.RootCAs = cas

	c.upstreamClient = &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs: cas,
			},
		},
		Timeout: c.upstreamCallTimeout(),
	}
}

// upstreamCallTimeout returns the per-call timeout, defaulting to 5s so a
// zero-value Config never produces already-expired contexts.
func (c *Config) upstreamCallTimeout() time.Duration {
	if c.UpstreamTimeout > 0 {
		return c.UpstreamTimeout
	}

	return 5 * time.Second
}

// UpstreamClient returns the shared outbound http client.
func (c *Config) UpstreamClient() *http.Client {
	if c.upstreamClient == nil {
		c.SetRootCAs(nil)
	}

	return c.upstreamClient
}

// weightFor returns the configured weight for a provider, defaulting to 10
// so every candidate starts equally likely.
func (c *Config) weightFor(provider string) int {
	if w, ok := c.ProviderWeights[provider]; ok && w > 0 {
		return w
	}

	return 10
}
