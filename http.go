package locator

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pospos369/ip-location-api/upstream"
	"github.com/pospos369/ip-location-api/util"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warning("Unable to encode response")
	}
}

// locationHandler serves /location/ip: the answer keeps the native format
// of whichever provider responded.
func (l *Locator) locationHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	ip := params.Get("ip")

	if !util.ValidIPv4(ip) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "无效的IP地址格式",
		})
		return
	}

	coor := params.Get("coor")

	if coor == "" {
		coor = "bd09ll"
	}

	query := Query{
		IP:      ip,
		Coor:    coor,
		BaiduAK: params.Get("ak"),
		AmapKey: params.Get("key"),
	}

	location, failures := l.resolveLocation(r.Context(), query)

	if location == nil {
		logExhausted(ip, failures)

		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "所有上游IP查询接口均不可用，请稍后再试",
		})
		return
	}

	if candidate := l.candidateByName(location.Source); candidate != nil && candidate.Provider.Format() == upstream.FormatAmap {
		writeJSON(w, http.StatusOK, buildAmapEnvelope(location))
		return
	}

	writeJSON(w, http.StatusOK, buildBaiduEnvelope(location))
}

// v3Handler serves /v3/ip: the answer is always projected into the Amap
// shape, no matter which provider responded. Total failure is a 200 with
// a zero status, matching what Amap clients expect to parse.
func (l *Locator) v3Handler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	ip := params.Get("ip")

	if !util.ValidIPv4(ip) {
		writeJSON(w, http.StatusBadRequest, amapInvalidParamsEnvelope())
		return
	}

	query := Query{
		IP:      ip,
		AmapKey: params.Get("key"),
	}

	location, failures := l.resolveLocation(r.Context(), query)

	if location == nil {
		logExhausted(ip, failures)

		writeJSON(w, http.StatusOK, amapExhaustedEnvelope())
		return
	}

	writeJSON(w, http.StatusOK, buildAmapEnvelope(location))
}

func logExhausted(ip string, failures []CandidateFailure) {
	fields := log.Fields{"ip": ip}

	for _, failure := range failures {
		fields[failure.Provider] = string(failure.Reason)
	}

	log.WithFields(fields).Debug("Returning failure envelope")
}

func (l *Locator) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// statusHandler reports the availability snapshot from the check loop.
func (l *Locator) statusHandler(w http.ResponseWriter, r *http.Request) {
	l.statusMu.RLock()

	statuses := make(map[string]ProviderStatus, len(l.statuses))

	for name, status := range l.statuses {
		statuses[name] = *status
	}

	l.statusMu.RUnlock()

	writeJSON(w, http.StatusOK, statuses)
}

// providerInfo is the public description of one candidate. Credentials
// themselves are never exposed, only whether a default is present.
type providerInfo struct {
	ID                   string          `json:"id"`
	Format               upstream.Format `json:"format"`
	RequiresCredential   bool            `json:"requires_credential"`
	HasDefaultCredential bool            `json:"has_default_credential"`
	Weight               int             `json:"weight"`
}

func (l *Locator) providersHandler(w http.ResponseWriter, r *http.Request) {
	infos := make([]providerInfo, 0, len(l.candidates))

	for _, candidate := range l.candidates {
		infos = append(infos, providerInfo{
			ID:                   candidate.Provider.Name(),
			Format:               candidate.Provider.Format(),
			RequiresCredential:   candidate.Provider.RequiresCredential(),
			HasDefaultCredential: candidate.DefaultCredential != "",
			Weight:               candidate.Weight,
		})
	}

	writeJSON(w, http.StatusOK, infos)
}
