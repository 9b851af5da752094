package locator

import (
	"strings"

	"github.com/pospos369/ip-location-api/upstream"
)

// NormalizedLocation is the canonical intermediate representation every
// provider answer is mapped into before an envelope is built from it.
type NormalizedLocation struct {
	CountryCode string

	// Province is always the complete administrative name, e.g.
	// "广西壮族自治区", never the short form.
	Province string

	City     string
	District string
	Adcode   string
	CityCode int

	// Longitude and Latitude are set only when the source returned
	// coordinates; they stay in the provider's own coordinate system.
	Longitude string
	Latitude  string

	// Rectangle is the Amap bounding box, set only for Amap answers.
	Rectangle string

	Address string

	// Source is the id of the provider that actually answered.
	Source string
}

// normalizeLocation turns a raw provider parse into the canonical form:
// trim, complete the province name, then validate. A structurally valid
// answer with an empty province or city is a failure here so the
// orchestrator falls back instead of serving a degraded result.
func normalizeLocation(raw *upstream.Location, source string) (*NormalizedLocation, error) {
	if raw == nil {
		return nil, upstream.NewError(source, upstream.ReasonMalformedResponse, nil)
	}

	province := CompleteProvince(strings.TrimSpace(raw.Province))
	city := strings.TrimSpace(raw.City)

	if province == "" || city == "" {
		return nil, upstream.NewError(source, upstream.ReasonIncompleteLocation, nil)
	}

	countryCode := raw.CountryCode

	// These upstreams only carry mainland China data.
	if countryCode == "" {
		countryCode = "CN"
	}

	address := strings.TrimSpace(raw.Address)

	if address == "" {
		address = province + city
	}

	return &NormalizedLocation{
		CountryCode: countryCode,
		Province:    province,
		City:        city,
		District:    strings.TrimSpace(raw.District),
		Adcode:      strings.TrimSpace(raw.Adcode),
		CityCode:    raw.CityCode,
		Longitude:   raw.Longitude,
		Latitude:    raw.Latitude,
		Rectangle:   raw.Rectangle,
		Address:     address,
		Source:      source,
	}, nil
}
