package locator

import (
	"context"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/pospos369/ip-location-api/upstream"
)

// CandidateFailure records why one provider did not answer a request.
type CandidateFailure struct {
	Provider string
	Reason   upstream.FailureReason
}

type attempt struct {
	candidate  *Candidate
	credential string
}

// resolveLocation walks the fallback chain for one request: primary
// candidate first, then the remaining configured candidates in priority
// order, one attempt per provider, first usable answer wins. A nil
// location means every candidate failed; the returned failures carry the
// per-provider reasons for diagnostics.
func (l *Locator) resolveLocation(ctx context.Context, query Query) (*NormalizedLocation, []CandidateFailure) {
	lookupsServed.Inc()

	creds := l.resolveCredentials(query)

	key := cacheKey(query)

	if !creds.CallerSupplied && l.resultCache != nil {
		if cached, ok := l.resultCache.Get(key); ok {
			cacheHits.Inc()
			return cached.(*NormalizedLocation), nil
		}
	}

	attempts, failures := l.buildAttempts(creds)

	for _, a := range attempts {
		location := l.tryCandidate(ctx, a, query, &failures)

		if location == nil {
			continue
		}

		if !creds.CallerSupplied && l.resultCache != nil {
			l.resultCache.Add(key, location)
		}

		return location, failures
	}

	log.WithFields(log.Fields{
		"ip":       query.IP,
		"failures": failures,
	}).Warning("All upstreams exhausted")

	return nil, failures
}

// cacheKey identifies one credential-less answer. The coordinate hint
// changes the point Baidu Map returns, so it is part of the key; an empty
// hint means the upstream default bd09ll.
func cacheKey(query Query) string {
	coor := query.Coor

	if coor == "" {
		coor = "bd09ll"
	}

	return query.IP + "|" + coor
}

// buildAttempts produces the ordered candidate list for a request. The
// primary goes first with its resolved credential; the rest keep the fixed
// priority order. Credentialed candidates without any key are excluded up
// front and recorded as credential-missing.
func (l *Locator) buildAttempts(creds ResolvedCredentials) ([]attempt, []CandidateFailure) {
	var attempts []attempt

	var failures []CandidateFailure

	if creds.Primary != nil {
		attempts = append(attempts, attempt{
			candidate:  creds.Primary,
			credential: creds.PrimaryCredential,
		})
	}

	rest := lo.Filter(l.candidates, func(c *Candidate, _ int) bool {
		return c != creds.Primary
	})

	for _, candidate := range rest {
		if !candidate.usable() {
			failures = append(failures, CandidateFailure{
				Provider: candidate.Provider.Name(),
				Reason:   upstream.ReasonCredentialMissing,
			})

			continue
		}

		attempts = append(attempts, attempt{
			candidate:  candidate,
			credential: candidate.DefaultCredential,
		})
	}

	return attempts, failures
}

// tryCandidate invokes a single provider and normalizes its answer.
// A nil return means the failure was recorded and the caller should move
// on to the next candidate.
func (l *Locator) tryCandidate(ctx context.Context, a attempt, query Query, failures *[]CandidateFailure) *NormalizedLocation {
	name := a.candidate.Provider.Name()

	callCtx, cancel := context.WithTimeout(ctx, l.config.upstreamCallTimeout())
	defer cancel()

	started := time.Now()

	raw, err := a.candidate.Provider.Lookup(callCtx, upstream.Query{IP: query.IP, Coor: query.Coor}, a.credential)

	upstreamDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())

	if err == nil {
		var location *NormalizedLocation

		location, err = normalizeLocation(raw, name)

		if err == nil {
			upstreamSuccesses.WithLabelValues(name).Inc()
			return location
		}
	}

	reason := upstream.ReasonOf(err)

	upstreamFailures.WithLabelValues(name, string(reason)).Inc()

	log.WithFields(log.Fields{
		"provider": name,
		"reason":   reason,
		"error":    err,
	}).Debug("Upstream lookup failed, falling back")

	*failures = append(*failures, CandidateFailure{
		Provider: name,
		Reason:   reason,
	})

	return nil
}
