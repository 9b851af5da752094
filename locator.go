package locator

import (
	"net/http"
	"sync"
	"time"

	"github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/pospos369/ip-location-api/middleware"
	"github.com/pospos369/ip-location-api/upstream"
)

// Version is reported by the health endpoint.
const Version = "1.2.0"

var (
	lookupsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iplocator_lookups_total",
		Help: "The total number of location lookups served",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iplocator_cache_hits_total",
		Help: "The number of lookups answered from the result cache",
	})

	upstreamSuccesses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplocator_upstream_success_total",
		Help: "Successful upstream lookups per provider",
	}, []string{"provider"})

	upstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iplocator_upstream_failures_total",
		Help: "Failed upstream lookups per provider and reason",
	}, []string{"provider", "reason"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "iplocator_upstream_duration_seconds",
		Help: "Upstream lookup latency per provider",
	}, []string{"provider"})
)

// Candidate is one queryable provider plus the process-wide default
// credential that applies to it.
type Candidate struct {
	Provider upstream.Provider

	// DefaultCredential is the startup-time key for credentialed
	// providers, empty for keyless ones.
	DefaultCredential string

	// Weight drives the random starting pick for credential-less requests.
	Weight int
}

// usable reports whether the candidate can be invoked without a
// caller-supplied credential.
func (c *Candidate) usable() bool {
	return !c.Provider.RequiresCredential() || c.DefaultCredential != ""
}

// Locator is our application instance.
type Locator struct {
	config *Config

	// candidates is the fixed priority order: credentialed providers
	// first, keyless providers last. Immutable after New.
	candidates []*Candidate

	picker      Picker
	resultCache *lru.Cache

	statusMu sync.RWMutex
	statuses map[string]*ProviderStatus
}

// ProviderStatus is the availability snapshot of one upstream,
// maintained by the background check loop.
type ProviderStatus struct {
	Available   bool      `json:"available"`
	LastChecked time.Time `json:"last_checked"`
}

// New creates a new instance of Locator.
func New(config *Config) *Locator {
	client := config.UpstreamClient()

	candidates := []*Candidate{
		{Provider: upstream.NewBaiduMap(client), DefaultCredential: config.BaiduMapAK},
		{Provider: upstream.NewAmap(client), DefaultCredential: config.AmapKey},
		{Provider: upstream.NewBaiduOpendata(client)},
		{Provider: upstream.NewPconline(client)},
	}

	statuses := make(map[string]*ProviderStatus)

	for _, candidate := range candidates {
		candidate.Weight = config.weightFor(candidate.Provider.Name())
		statuses[candidate.Provider.Name()] = &ProviderStatus{}
	}

	l := &Locator{
		config:     config,
		candidates: candidates,
		picker:     WeightedPicker{},
		statuses:   statuses,
	}

	if config.CacheSize > 0 {
		l.resultCache, _ = lru.New(config.CacheSize)
	}

	return l
}

// Start registers the routes and the availability check loop, then returns
// the http.Handler.
func (l *Locator) Start() http.Handler {
	log.Info("Starting check loop")

	go l.checkLoop()

	log.Info("Setting up routes")

	router := chi.NewRouter()

	router.Use(middleware.RealIPMiddleware)
	router.Use(logger.Logger("locator", log.StandardLogger()))

	router.Get("/location/ip", l.locationHandler)
	router.Get("/v3/ip", l.v3Handler)
	router.Head("/health", l.healthHandler)
	router.Get("/health", l.healthHandler)
	router.Get("/status", l.statusHandler)
	router.Get("/providers", l.providersHandler)
	router.Get("/metrics", promhttp.Handler().ServeHTTP)

	if l.config.BindAddress != "" {
		log.WithField("bind", l.config.BindAddress).Info("Binding to address")

		go http.ListenAndServe(l.config.BindAddress, router)
	}

	return router
}

// candidateByName finds a configured candidate by provider id.
func (l *Locator) candidateByName(name string) *Candidate {
	for _, candidate := range l.candidates {
		if candidate.Provider.Name() == name {
			return candidate
		}
	}

	return nil
}
