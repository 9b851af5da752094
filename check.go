package locator

import (
	"net/http"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// checkLoop probes every upstream on a fixed interval. The snapshot only
// feeds the status endpoint and the availability gauge; candidate ordering
// stays credential-driven regardless of what the probes say.
func (l *Locator) checkLoop() {
	interval := l.config.CheckInterval

	if interval == 0 {
		interval = 60 * time.Second
	}

	t := time.NewTicker(interval)

	for {
		l.checkProviders()
		<-t.C
	}
}

// checkProviders fans the probes out concurrently and waits for all of
// them before returning.
func (l *Locator) checkProviders() {
	var wg conc.WaitGroup

	for _, candidate := range l.candidates {
		provider := candidate.Provider

		wg.Go(func() {
			l.updateStatus(provider.Name(), l.probe(provider.Endpoint()))
		})
	}

	wg.Wait()
}

// probe considers an upstream reachable when its endpoint produces any
// HTTP response at all; error statuses for a parameterless request are
// expected and still prove the service is up.
func (l *Locator) probe(endpoint string) bool {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)

	if err != nil {
		return false
	}

	req.Header.Set("User-Agent", "IPLocationAPI/"+Version+" (Go "+runtime.Version()+")")

	res, err := l.config.UpstreamClient().Do(req)

	if err != nil {
		return false
	}

	res.Body.Close()

	return true
}

func (l *Locator) updateStatus(name string, available bool) {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()

	status := l.statuses[name]

	if status == nil {
		status = &ProviderStatus{}
		l.statuses[name] = status
	}

	if status.Available != available {
		if available {
			log.WithField("provider", name).Info("Upstream is online")
		} else {
			log.WithField("provider", name).Warning("Upstream went offline")
		}
	}

	status.Available = available
	status.LastChecked = time.Now()
}
